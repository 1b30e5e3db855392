package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/persistence"
)

// TimelineRepository stores audit entries. Events are insert-only.
type TimelineRepository interface {
	Append(ctx context.Context, event *domain.TimelineEvent) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.TimelineEvent, error)
}

type timelineRepository struct {
	db persistence.Querier
}

// NewTimelineRepository builds repository.
func NewTimelineRepository(db persistence.Querier) TimelineRepository {
	return &timelineRepository{db: db}
}

// Append allocates the next per-request seq and inserts the event in one statement.
// pgx.ErrNoRows is returned when the request does not exist.
func (r *timelineRepository) Append(ctx context.Context, event *domain.TimelineEvent) error {
	const query = `
        WITH next AS (
            UPDATE requests SET timeline_seq = timeline_seq + 1 WHERE id=$1 RETURNING timeline_seq
        )
        INSERT INTO timeline_events (id, request_id, seq, label, by_chi, colore, created_at)
        SELECT $2, $1, next.timeline_seq, $3, $4, $5, $6 FROM next
        RETURNING seq`
	id := uuid.NewString()
	var seq int64
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		event.RequestID,
		id,
		event.Label,
		event.ByChi,
		event.Colore,
		event.CreatedAt,
	).Scan(&seq); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	event.ID = id
	event.Seq = seq
	return nil
}

func (r *timelineRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.TimelineEvent, error) {
	const query = `
        SELECT id, request_id, seq, label, by_chi, colore, created_at
        FROM timeline_events WHERE request_id=$1 ORDER BY seq ASC`
	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.TimelineEvent, 0)
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(
			&event.ID,
			&event.RequestID,
			&event.Seq,
			&event.Label,
			&event.ByChi,
			&event.Colore,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
