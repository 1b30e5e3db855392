package repository

import (
	"context"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/persistence"
)

// MessageRepository reads request thread messages.
type MessageRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]domain.Message, error)
}

type messageRepository struct {
	db persistence.Querier
}

// NewMessageRepository builds repository.
func NewMessageRepository(db persistence.Querier) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Message, error) {
	const query = `
        SELECT id, request_id, mittente, testo, created_at
        FROM messages WHERE request_id=$1 ORDER BY created_at ASC`
	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.RequestID,
			&msg.Mittente,
			&msg.Testo,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
