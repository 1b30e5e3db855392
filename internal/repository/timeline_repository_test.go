package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/persistence"
)

func TestTimelineRepository_Append(t *testing.T) {
	at := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

	t.Run("allocates seq", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`WITH next AS`).
			WithArgs("r1", pgxmock.AnyArg(), "Stato: Presa in Carico", domain.ByChiAdmin, "#C97B00", at).
			WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(4)))

		event := &domain.TimelineEvent{
			RequestID: "r1",
			Label:     "Stato: Presa in Carico",
			ByChi:     domain.ByChiAdmin,
			Colore:    "#C97B00",
			CreatedAt: at,
		}
		require.NoError(t, NewTimelineRepository(mock).Append(context.Background(), event))
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, int64(4), event.Seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown request", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`WITH next AS`).
			WithArgs("missing", pgxmock.AnyArg(), "x", "y", "z", at).
			WillReturnError(pgx.ErrNoRows)

		event := &domain.TimelineEvent{RequestID: "missing", Label: "x", ByChi: "y", Colore: "z", CreatedAt: at}
		err := NewTimelineRepository(mock).Append(context.Background(), event)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
		assert.Empty(t, event.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins the ambient transaction", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE requests SET stato`).
			WithArgs(domain.StatusTest, "r1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectQuery(`WITH next AS`).
			WithArgs("r1", pgxmock.AnyArg(), "Stato: In Test", domain.ByChiAdmin, "#6B3FA0", at).
			WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(2)))
		mock.ExpectCommit()

		requests := NewRequestRepository(mock)
		timeline := NewTimelineRepository(mock)
		err := persistence.NewTxManager(mock).RunInTx(context.Background(), func(ctx context.Context) error {
			if err := requests.UpdateStatus(ctx, "r1", domain.StatusTest); err != nil {
				return err
			}
			return timeline.Append(ctx, &domain.TimelineEvent{
				RequestID: "r1",
				Label:     domain.TransitionLabel(domain.StatusTest),
				ByChi:     domain.ByChiAdmin,
				Colore:    domain.StatusTest.Color(),
				CreatedAt: at,
			})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTimelineRepository_ListByRequest(t *testing.T) {
	mock := newMockPool(t)
	at := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "request_id", "seq", "label", "by_chi", "colore", "created_at"}).
		AddRow("e1", "r1", int64(1), domain.LabelRichiestaInviata, domain.ByChiSistema, "#5A6872", at).
		AddRow("e2", "r1", int64(2), "Stato: Completato", domain.ByChiAdmin, "#008a4b", at.Add(-5*time.Second))
	mock.ExpectQuery(`ORDER BY seq ASC`).WithArgs("r1").WillReturnRows(rows)

	events, err := NewTimelineRepository(mock).ListByRequest(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Before(events[1]))
	assert.Equal(t, int64(2), events[1].Seq)
	assert.Equal(t, domain.ByChiSistema, events[0].ByChi)
	assert.NoError(t, mock.ExpectationsWereMet())
}
