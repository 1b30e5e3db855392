package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/persistence"
)

// ProfileRepository defines persistence access for portal profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}

type profileRepository struct {
	db persistence.Querier
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(db persistence.Querier) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `
        SELECT id, nome, cognome, email, ruolo, avatar_url, created_at
        FROM profiles WHERE id=$1`

	return scanProfile(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *profileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	const query = `
        SELECT id, nome, cognome, email, ruolo, avatar_url, created_at
        FROM profiles ORDER BY cognome ASC, nome ASC`

	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}

// Update writes nome, cognome and ruolo; email belongs to the identity provider.
func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	const query = `UPDATE profiles SET nome=$1, cognome=$2, ruolo=$3 WHERE id=$4`

	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query,
		profile.Nome,
		profile.Cognome,
		profile.Ruolo,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.Nome,
		&profile.Cognome,
		&profile.Email,
		&profile.Ruolo,
		&profile.AvatarURL,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
