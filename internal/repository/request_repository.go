package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/persistence"
)

// DefaultListLimit applies when a filter carries no limit.
const DefaultListLimit = 20

// RequestFilter captures list/search parameters.
type RequestFilter struct {
	UserID    *string
	Stato     *domain.RequestStatus
	Modulo    *domain.Module
	Categoria *domain.Category
	Search    string
	Limit     int
	Offset    int
}

// RequestRepository encapsulates request persistence. Stato and note_admin have dedicated
// writers; there is no general-purpose update.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.RequestWithRequester, error)
	UpdateStatus(ctx context.Context, id string, stato domain.RequestStatus) error
	UpdateNote(ctx context.Context, id string, note string) error
	List(ctx context.Context, filter RequestFilter) ([]domain.RequestWithRequester, error)
	Stats(ctx context.Context) (*domain.RequestStats, error)
}

type requestRepository struct {
	db persistence.Querier
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(db persistence.Querier) RequestRepository {
	return &requestRepository{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var requestColumns = []string{
	"r.id", "r.user_id", "r.titolo", "r.descrizione", "r.modulo", "r.categoria", "r.stato",
	"r.note_admin", "r.email", "r.created_at",
	"p.id", "p.nome", "p.cognome", "p.email", "p.ruolo", "p.avatar_url", "p.created_at",
}

func (r *requestRepository) q(ctx context.Context) persistence.Querier {
	return persistence.QuerierFromCtx(ctx, r.db)
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (id, user_id, titolo, descrizione, modulo, tipo, categoria, stato, email, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	_, err := r.q(ctx).Exec(ctx, query,
		request.ID,
		request.UserID,
		request.Titolo,
		request.Descrizione,
		request.Modulo,
		request.Categoria,
		request.Categoria,
		request.Stato,
		request.Email,
		request.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.RequestWithRequester, error) {
	query, args, err := psql.Select(requestColumns...).
		From("requests r").
		Join("profiles p ON p.id = r.user_id").
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build request query: %w", err)
	}
	return scanRequest(r.q(ctx).QueryRow(ctx, query, args...))
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, stato domain.RequestStatus) error {
	const query = `UPDATE requests SET stato=$1 WHERE id=$2`
	return r.execOne(ctx, query, stato, id)
}

func (r *requestRepository) UpdateNote(ctx context.Context, id string, note string) error {
	const query = `UPDATE requests SET note_admin=$1 WHERE id=$2`
	return r.execOne(ctx, query, note, id)
}

func (r *requestRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.RequestWithRequester, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	builder := psql.Select(requestColumns...).
		From("requests r").
		Join("profiles p ON p.id = r.user_id")

	if filter.UserID != nil {
		builder = builder.Where(sq.Eq{"r.user_id": *filter.UserID})
	}
	if filter.Stato != nil {
		builder = builder.Where(sq.Eq{"r.stato": *filter.Stato})
	}
	if filter.Modulo != nil {
		builder = builder.Where(sq.Eq{"r.modulo": *filter.Modulo})
	}
	if filter.Categoria != nil {
		builder = builder.Where(sq.Eq{"r.categoria": *filter.Categoria})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"r.titolo": pattern},
			sq.ILike{"r.descrizione": pattern},
		})
	}

	query, args, err := builder.
		OrderBy("r.created_at DESC", "r.id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.RequestWithRequester, 0)
	for rows.Next() {
		item, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *requestRepository) Stats(ctx context.Context) (*domain.RequestStats, error) {
	const query = `SELECT stato, categoria, COUNT(*) FROM requests GROUP BY stato, categoria`
	rows, err := r.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &domain.RequestStats{
		ByStatus:   make(map[domain.RequestStatus]int, len(domain.Statuses)),
		ByCategory: make(map[domain.Category]int, len(domain.Categories)),
	}
	for _, s := range domain.Statuses {
		stats.ByStatus[s] = 0
	}
	for _, c := range domain.Categories {
		stats.ByCategory[c] = 0
	}
	for rows.Next() {
		var (
			stato     domain.RequestStatus
			categoria domain.Category
			count     int
		)
		if err := rows.Scan(&stato, &categoria, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[stato] += count
		stats.ByCategory[categoria] += count
		stats.Total += count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.RequestWithRequester, error) {
	var (
		req     domain.RequestWithRequester
		profile domain.Profile
	)
	if err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Titolo,
		&req.Descrizione,
		&req.Modulo,
		&req.Categoria,
		&req.Stato,
		&req.NoteAdmin,
		&req.Email,
		&req.CreatedAt,
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
	req.Requester = &profile
	return &req, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
