package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/segnala-service/internal/domain"
)

// StatsKey holds the cached dashboard counters.
const StatsKey = "segnala:stats:v1"

// StatsCache stores request statistics in Redis for a short TTL.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatsCache returns a cache; a nil client disables caching.
func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get returns the cached stats; ok is false on a miss.
func (c *StatsCache) Get(ctx context.Context) (*domain.RequestStats, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, StatsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read stats cache: %w", err)
	}

	var stats domain.RequestStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode stats cache: %w", err)
	}
	return &stats, true, nil
}

// Set stores stats with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, stats *domain.RequestStats) error {
	if !c.enabled() || stats == nil {
		return nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats cache: %w", err)
	}
	return c.client.Set(ctx, StatsKey, raw, c.ttl).Err()
}

// Invalidate drops the cached stats.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, StatsKey).Err()
}
