package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/segnala-service/internal/auth"
	"github.com/spec-kit/segnala-service/internal/config"
	"github.com/spec-kit/segnala-service/internal/domain"
)

func newTokenCommand() *cobra.Command {
	var ruolo string

	cmd := &cobra.Command{
		Use:   "token <profile-id>",
		Short: "Issue a bearer token for a profile (development only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			role := domain.Role(ruolo)
			if !role.IsValid() {
				return fmt.Errorf("invalid role %q", ruolo)
			}

			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
			token, expiresAt, err := tokens.GenerateToken(args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&ruolo, "ruolo", "r", string(domain.RoleRichiedente), "Role claim (richiedente, admin)")

	return cmd
}
