package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/config"
	"github.com/spec-kit/segnala-service/internal/observability"
	"github.com/spec-kit/segnala-service/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error {
					return persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error {
					statuses, err := persistence.MigrationStatus(ctx, pg.PoolHandle())
					if err != nil {
						return err
					}
					for _, st := range statuses {
						fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", st.State, st.Source.Path)
					}
					return nil
				})
			},
		},
	)

	return cmd
}

func withDatabase(ctx context.Context, fn func(ctx context.Context, pg *persistence.Postgres, logger *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if ctx == nil {
		ctx = context.Background()
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		return errors.New("POSTGRES_DSN is required")
	}

	return fn(ctx, pg, logger)
}
