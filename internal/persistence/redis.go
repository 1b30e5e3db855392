package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/config"
)

const redisConnectTimeout = 3 * time.Second

// ErrRedisNotConfigured is returned by Ping when REDIS_ADDR is empty.
var ErrRedisNotConfigured = errors.New("redis client not configured")

// Redis holds the optional stats cache client. Client is nil when Redis is disabled.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client from REDIS_ADDR, which may be host:port or a redis:// URL.
// An empty address disables Redis; an unreachable server is logged and retried lazily.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; stats cache disabled")
		return &Redis{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", opts.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	}

	return &Redis{Client: client}, nil
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if !strings.Contains(cfg.Addr, "://") {
		return &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, nil
	}
	opts, err := redis.ParseURL(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_ADDR: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	return opts, nil
}

// Enabled reports whether a client was configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Cmdable returns the client for cache use, or an untyped nil when disabled.
func (r *Redis) Cmdable() redis.Cmdable {
	if !r.Enabled() {
		return nil
	}
	return r.Client
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return ErrRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}
