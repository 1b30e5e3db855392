package service

import (
	"context"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/repository"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// TimelineRecorder appends immutable audit events. It has no update or delete path.
type TimelineRecorder struct {
	events repository.TimelineRepository
	clock  clockwork.Clock
}

// NewTimelineRecorder builds a recorder; a nil clock uses wall time.
func NewTimelineRecorder(events repository.TimelineRepository, clock clockwork.Clock) *TimelineRecorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimelineRecorder{events: events, clock: clock}
}

// Append stores one event stamped with the recorder's clock. Store failures surface as AppendFailed.
func (r *TimelineRecorder) Append(ctx context.Context, requestID, label, byChi, colore string) (*domain.TimelineEvent, error) {
	fields := []struct{ name, value string }{
		{"request_id", requestID},
		{"label", label},
		{"by_chi", byChi},
		{"colore", colore},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("timeline event fields are required", map[string]any{"missing": missing})
	}

	event := &domain.TimelineEvent{
		RequestID: requestID,
		Label:     label,
		ByChi:     byChi,
		Colore:    colore,
		CreatedAt: r.clock.Now().UTC(),
	}
	if err := r.events.Append(ctx, event); err != nil {
		return nil, apperrors.NewAppendFailed(err, map[string]any{"request_id": requestID, "label": label})
	}
	return event, nil
}

// List returns the request's events in audit order.
func (r *TimelineRecorder) List(ctx context.Context, requestID string) ([]domain.TimelineEvent, error) {
	return r.events.ListByRequest(ctx, requestID)
}
