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
)

var profileRowColumns = []string{"id", "nome", "cognome", "email", "ruolo", "avatar_url", "created_at"}

func TestProfileRepository_GetByID(t *testing.T) {
	mock := newMockPool(t)
	avatar := "https://cdn.example.it/a.png"
	rows := pgxmock.NewRows(profileRowColumns).
		AddRow("u9", "Anna", "Bianchi", "anna@example.it", domain.RoleAdmin, &avatar, time.Now())
	mock.ExpectQuery(`FROM profiles WHERE id`).WithArgs("u9").WillReturnRows(rows)

	profile, err := NewProfileRepository(mock).GetByID(context.Background(), "u9")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, profile.Ruolo)
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, avatar, *profile.AvatarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_List(t *testing.T) {
	mock := newMockPool(t)
	rows := pgxmock.NewRows(profileRowColumns).
		AddRow("u1", "Mario", "Rossi", "mario@example.it", domain.RoleRichiedente, nil, time.Now()).
		AddRow("u9", "Anna", "Verdi", "anna@example.it", domain.RoleAdmin, nil, time.Now())
	mock.ExpectQuery(`FROM profiles ORDER BY cognome`).WillReturnRows(rows)

	profiles, err := NewProfileRepository(mock).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.Nil(t, profiles[0].AvatarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Update(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  bool
	}{
		{name: "updated", affected: 1},
		{name: "unknown profile", affected: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			mock.ExpectExec(`UPDATE profiles SET nome`).
				WithArgs("Anna", "Verdi", domain.RoleAdmin, "u9").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := NewProfileRepository(mock).Update(context.Background(), &domain.Profile{
				ID: "u9", Nome: "Anna", Cognome: "Verdi", Ruolo: domain.RoleAdmin,
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, pgx.ErrNoRows)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMessageRepository_ListByRequest(t *testing.T) {
	mock := newMockPool(t)
	rows := pgxmock.NewRows([]string{"id", "request_id", "mittente", "testo", "created_at"}).
		AddRow("m1", "r1", "Mario Rossi", "Allego lo screenshot", time.Now())
	mock.ExpectQuery(`FROM messages WHERE request_id`).WithArgs("r1").WillReturnRows(rows)

	msgs, err := NewMessageRepository(mock).ListByRequest(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Allego lo screenshot", msgs[0].Testo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
