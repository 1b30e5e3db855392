package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/segnala-service/internal/api/http"
	"github.com/spec-kit/segnala-service/internal/api/http/handlers"
	"github.com/spec-kit/segnala-service/internal/auth"
	"github.com/spec-kit/segnala-service/internal/cache"
	"github.com/spec-kit/segnala-service/internal/config"
	"github.com/spec-kit/segnala-service/internal/events"
	"github.com/spec-kit/segnala-service/internal/notify"
	"github.com/spec-kit/segnala-service/internal/observability"
	"github.com/spec-kit/segnala-service/internal/persistence"
	"github.com/spec-kit/segnala-service/internal/repository"
	"github.com/spec-kit/segnala-service/internal/service"
	"github.com/spec-kit/segnala-service/internal/worker"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool == nil {
		return errors.New("POSTGRES_DSN is required to serve requests")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to configure redis: %w", err)
	}
	defer redis.Close()

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	statsCache := cache.NewStatsCache(redis.Cmdable(), cfg.Lifecycle.StatsCacheTTL())

	requestRepo := repository.NewRequestRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	recorder := service.NewTimelineRecorder(repository.NewTimelineRepository(pool), clock)

	requestDeps := service.RequestDependencies{
		RequestRepo: requestRepo,
		MessageRepo: repository.NewMessageRepository(pool),
		Recorder:    recorder,
		StatsCache:  statsCache,
		Dispatcher:  dispatcher,
		Clock:       clock,
		Logger:      logger,
		Metrics:     metrics,
	}
	if cfg.Lifecycle.Atomic {
		requestDeps.Transactor = persistence.NewTxManager(pool)
	} else {
		logger.Warn("lifecycle running without transactions; audit append failures leave the primary write in place")
	}
	requestService := service.NewRequestService(requestDeps)

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		RequestRepo: requestRepo,
		Recorder:    recorder,
		Channel:     notify.NewChannel(cfg.Notification, logger),
		Dispatcher:  dispatcher,
		Clock:       clock,
		Logger:      logger,
		Metrics:     metrics,
	})
	profileService := service.NewProfileService(profileRepo, logger)

	worker.StartLifecycleWorker(service.NewLifecycleObserver(dispatcher, statsCache, logger))

	var redisProbe handlers.Pinger
	if redis.Enabled() {
		redisProbe = redis
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisProbe),
		Requests:       handlers.NewRequestsHandler(requestService, notificationService),
		Admin:          handlers.NewAdminHandler(requestService, profileService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, profileService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Error("fiber listen", zap.Error(err))
			cancel()
		}
	}()

	waitForShutdown(ctx, logger)

	return app.Shutdown()
}

func waitForShutdown(ctx context.Context, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	}
}
