package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/events"
	"github.com/spec-kit/segnala-service/internal/service"
)

type countingCache struct {
	invalidations int
}

func (c *countingCache) Get(ctx context.Context) (*domain.RequestStats, bool, error) {
	return nil, false, nil
}

func (c *countingCache) Set(ctx context.Context, stats *domain.RequestStats) error { return nil }

func (c *countingCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	return nil
}

func TestStartLifecycleWorker_InvalidatesStatsOnCountChanges(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	cache := &countingCache{}
	StartLifecycleWorker(service.NewLifecycleObserver(dispatcher, cache, zap.NewNop()))

	ctx := context.Background()
	assert.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventRequestCreated, RequestID: "r1"}))
	assert.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventStatusChanged, RequestID: "r1"}))
	assert.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventNoteSaved, RequestID: "r1"}))
	assert.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventNotificationSent, RequestID: "r1"}))

	assert.Equal(t, 2, cache.invalidations)
}

func TestStartLifecycleWorker_NilObserver(t *testing.T) {
	assert.NotPanics(t, func() { StartLifecycleWorker(nil) })
}
