package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/events"
)

// LifecycleObserver reacts to committed lifecycle events.
type LifecycleObserver struct {
	dispatcher events.Dispatcher
	stats      StatsCache
	logger     *zap.Logger
}

// NewLifecycleObserver creates the observer.
func NewLifecycleObserver(dispatcher events.Dispatcher, stats StatsCache, logger *zap.Logger) *LifecycleObserver {
	return &LifecycleObserver{
		dispatcher: dispatcher,
		stats:      stats,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (o *LifecycleObserver) RegisterHandlers() {
	if o.dispatcher == nil {
		return
	}
	o.dispatcher.Subscribe(events.EventRequestCreated, o.invalidateStats)
	o.dispatcher.Subscribe(events.EventStatusChanged, o.invalidateStats)
	o.dispatcher.Subscribe(events.EventRequestCreated, o.logEvent)
	o.dispatcher.Subscribe(events.EventStatusChanged, o.logEvent)
	o.dispatcher.Subscribe(events.EventNoteSaved, o.logEvent)
	o.dispatcher.Subscribe(events.EventNotificationSent, o.logEvent)
}

func (o *LifecycleObserver) invalidateStats(ctx context.Context, event events.Event) error {
	if o.stats == nil {
		return nil
	}
	return o.stats.Invalidate(ctx)
}

func (o *LifecycleObserver) logEvent(ctx context.Context, event events.Event) error {
	o.logger.Debug("lifecycle event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("request_id", event.RequestID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}
