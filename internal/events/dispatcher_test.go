package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("cache down")

	var calls []string
	d.Subscribe(EventStatusChanged, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventStatusChanged, func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventNoteSaved, func(ctx context.Context, e Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventStatusChanged, RequestID: "r1"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestInMemoryDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventRequestCreated}))
}
