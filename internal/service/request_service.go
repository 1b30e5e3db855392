package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/events"
	"github.com/spec-kit/segnala-service/internal/observability"
	"github.com/spec-kit/segnala-service/internal/repository"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// Transactor runs fn in one database transaction carried by the context.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StatsCache caches dashboard counters.
type StatsCache interface {
	Get(ctx context.Context) (*domain.RequestStats, bool, error)
	Set(ctx context.Context, stats *domain.RequestStats) error
	Invalidate(ctx context.Context) error
}

// RequestService owns the request lifecycle: creation, status transitions, admin notes and
// the role-scoped read side.
type RequestService struct {
	requests   repository.RequestRepository
	messages   repository.MessageRepository
	recorder   *TimelineRecorder
	tx         Transactor
	stats      StatsCache
	dispatcher events.Dispatcher
	clock      clockwork.Clock
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// RequestDependencies bundles collaborators for the request service. A nil Transactor selects
// the two-step write contract.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	MessageRepo repository.MessageRepository
	Recorder    *TimelineRecorder
	Transactor  Transactor
	StatsCache  StatsCache
	Dispatcher  events.Dispatcher
	Clock       clockwork.Clock
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// CreateRequestInput describes a new request.
type CreateRequestInput struct {
	Titolo      string
	Descrizione string
	Modulo      domain.Module
	Tipo        domain.Category
	Email       *string
}

// ListFilter describes list/search parameters.
type ListFilter struct {
	Stato     *domain.RequestStatus
	Modulo    *domain.Module
	Categoria *domain.Category
	Search    string
	Limit     int
	Offset    int
}

// RequestDetail is the full read model for one request.
type RequestDetail struct {
	Request  domain.RequestWithRequester
	Timeline []domain.TimelineEvent
	Messages []domain.Message
	Duration DurationReport
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:   deps.RequestRepo,
		messages:   deps.MessageRepo,
		recorder:   deps.Recorder,
		tx:         deps.Transactor,
		stats:      deps.StatsCache,
		dispatcher: deps.Dispatcher,
		clock:      clock,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Create stores a new request in state inviata and records "Richiesta inviata".
func (s *RequestService) Create(ctx context.Context, actor domain.Actor, input CreateRequestInput) (*domain.Request, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return nil, apperrors.NewUnauthorized("authenticated profile required")
	}
	titolo := strings.TrimSpace(input.Titolo)
	descrizione := strings.TrimSpace(input.Descrizione)
	if titolo == "" || descrizione == "" {
		return nil, apperrors.NewValidationError("titolo and descrizione are required", nil)
	}
	if !input.Modulo.IsValid() {
		return nil, apperrors.NewValidationError("invalid modulo", map[string]any{"modulo": input.Modulo})
	}
	if !input.Tipo.IsValid() {
		return nil, apperrors.NewValidationError("invalid tipo", map[string]any{"tipo": input.Tipo})
	}

	req := &domain.Request{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		Titolo:      titolo,
		Descrizione: descrizione,
		Modulo:      input.Modulo,
		Categoria:   input.Tipo,
		Stato:       domain.StatusInviata,
		Email:       trimmedOrNil(input.Email),
		CreatedAt:   s.clock.Now().UTC(),
	}

	err := s.commit(ctx, "create", req.ID,
		func(ctx context.Context) error { return s.requests.Create(ctx, req) },
		func(ctx context.Context) error {
			_, err := s.recorder.Append(ctx, req.ID, domain.LabelRichiestaInviata, domain.ByChiSistema, domain.StatusInviata.Color())
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("request created",
		zap.String("request_id", req.ID),
		zap.String("user_id", actor.ID),
		zap.String("modulo", string(req.Modulo)))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		ActorID:   actor.ID,
		Payload: events.RequestCreatedPayload{
			Modulo:    req.Modulo,
			Categoria: req.Categoria,
			Titolo:    req.Titolo,
		},
	})
	return req, nil
}

// Transition is the only writer of stato. Every call, including a same-state transition,
// appends one "Stato: <label>" event.
func (s *RequestService) Transition(ctx context.Context, actor domain.Actor, requestID string, newState domain.RequestStatus) (*domain.Request, error) {
	if !actor.IsAdmin() {
		return nil, s.reject("transition", apperrors.NewRoleRequired(string(domain.RoleAdmin)))
	}
	if !newState.IsValid() {
		return nil, s.reject("transition", apperrors.NewValidationError("invalid stato", map[string]any{"stato": newState}))
	}

	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, s.reject("transition", notFound(err, requestID))
	}
	oldState := current.Stato

	err = s.commit(ctx, "transition", requestID,
		func(ctx context.Context) error { return s.requests.UpdateStatus(ctx, requestID, newState) },
		func(ctx context.Context) error {
			_, err := s.recorder.Append(ctx, requestID, domain.TransitionLabel(newState), domain.ByChiAdmin, newState.Color())
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("request status changed",
		zap.String("request_id", requestID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(oldState)),
		zap.String("to", string(newState)))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventStatusChanged,
		RequestID: requestID,
		ActorID:   actor.ID,
		Payload:   events.StatusChangedPayload{OldStatus: oldState, NewStatus: newState},
	})

	updated := current.Request
	updated.Stato = newState
	return &updated, nil
}

// SaveNote sets note_admin and records "Nota aggiunta".
func (s *RequestService) SaveNote(ctx context.Context, actor domain.Actor, requestID, note string) (*domain.Request, error) {
	if !actor.IsAdmin() {
		return nil, s.reject("save_note", apperrors.NewRoleRequired(string(domain.RoleAdmin)))
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, s.reject("save_note", apperrors.NewValidationError("note is required", nil))
	}

	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, s.reject("save_note", notFound(err, requestID))
	}

	err = s.commit(ctx, "save_note", requestID,
		func(ctx context.Context) error { return s.requests.UpdateNote(ctx, requestID, note) },
		func(ctx context.Context) error {
			_, err := s.recorder.Append(ctx, requestID, domain.LabelNotaAggiunta, domain.ByChiAdmin, domain.ColorInfo)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("request note saved", zap.String("request_id", requestID), zap.String("actor_id", actor.ID))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventNoteSaved,
		RequestID: requestID,
		ActorID:   actor.ID,
		Payload:   events.NoteSavedPayload{Length: len(note)},
	})

	updated := current.Request
	updated.NoteAdmin = &note
	return &updated, nil
}

// Get returns the request detail with the timeline newest first and the duration report.
func (s *RequestService) Get(ctx context.Context, actor domain.Actor, requestID string) (*RequestDetail, error) {
	req, err := s.loadVisible(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	timeline, err := s.recorder.List(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	msgs, err := s.messages.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	report := ComputeDuration(req.Request, timeline)

	newestFirst := make([]domain.TimelineEvent, len(timeline))
	for i, ev := range timeline {
		newestFirst[len(timeline)-1-i] = ev
	}

	return &RequestDetail{
		Request:  *req,
		Timeline: newestFirst,
		Messages: msgs,
		Duration: report,
	}, nil
}

// Timeline returns the request's events oldest first.
func (s *RequestService) Timeline(ctx context.Context, actor domain.Actor, requestID string) ([]domain.TimelineEvent, error) {
	if _, err := s.loadVisible(ctx, actor, requestID); err != nil {
		return nil, err
	}
	timeline, err := s.recorder.List(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return timeline, nil
}

// List returns requests newest first. Requesters only see their own.
func (s *RequestService) List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]domain.RequestWithRequester, error) {
	if filter.Stato != nil && !filter.Stato.IsValid() {
		return nil, apperrors.NewValidationError("invalid stato", map[string]any{"stato": *filter.Stato})
	}
	if filter.Modulo != nil && !filter.Modulo.IsValid() {
		return nil, apperrors.NewValidationError("invalid modulo", map[string]any{"modulo": *filter.Modulo})
	}
	if filter.Categoria != nil && !filter.Categoria.IsValid() {
		return nil, apperrors.NewValidationError("invalid categoria", map[string]any{"categoria": *filter.Categoria})
	}

	repoFilter := repository.RequestFilter{
		Stato:     filter.Stato,
		Modulo:    filter.Modulo,
		Categoria: filter.Categoria,
		Search:    filter.Search,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	if !actor.IsAdmin() {
		owner := actor.ID
		repoFilter.UserID = &owner
	}

	items, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Stats returns request counts per stato and categoria, served from cache when warm.
func (s *RequestService) Stats(ctx context.Context, actor domain.Actor) (*domain.RequestStats, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewRoleRequired(string(domain.RoleAdmin))
	}

	if s.stats != nil {
		cached, ok, err := s.stats.Get(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	stats, err := s.requests.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.stats != nil {
		if err := s.stats.Set(ctx, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *RequestService) loadVisible(ctx context.Context, actor domain.Actor, requestID string) (*domain.RequestWithRequester, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, requestID)
	}
	if !actor.IsAdmin() && req.UserID != actor.ID {
		return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
	}
	return req, nil
}

// commit runs the primary write and its audit append. With a Transactor both commit or
// neither does; without one the primary write stays and a failed append is reported with
// state_changed=true.
func (s *RequestService) commit(ctx context.Context, op, requestID string, primary, audit func(ctx context.Context) error) error {
	if s.tx != nil {
		var auditErr error
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := primary(ctx); err != nil {
				return err
			}
			if err := audit(ctx); err != nil {
				auditErr = err
				return err
			}
			return nil
		})
		if auditErr != nil {
			s.logger.Error("timeline append failed; primary write rolled back",
				zap.String("operation", op),
				zap.String("request_id", requestID),
				zap.Error(auditErr))
			return s.reject(op, apperrors.WithDetail(auditErr, "state_changed", false))
		}
		if err != nil {
			return s.reject(op, notFound(err, requestID))
		}
		s.metrics.RecordOperation(op, "ok")
		return nil
	}

	if err := primary(ctx); err != nil {
		return s.reject(op, notFound(err, requestID))
	}
	if err := audit(ctx); err != nil {
		s.logger.Error("timeline append failed after primary write; manual reconciliation required",
			zap.String("operation", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return s.reject(op, apperrors.WithDetail(err, "state_changed", true))
	}
	s.metrics.RecordOperation(op, "ok")
	return nil
}

func (s *RequestService) reject(op string, err error) error {
	s.metrics.RecordOperation(op, apperrors.ToDomainError(err).Code)
	return err
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event subscriber failed",
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}

// notFound maps a missing row to NotFound carrying the request id.
func notFound(err error, requestID string) error {
	mapped := apperrors.ToDomainError(err)
	if mapped.Code == apperrors.CodeNotFound && mapped.Details != nil {
		if _, ok := mapped.Details["request_id"]; !ok {
			mapped.Message = "request not found"
			mapped.Details["request_id"] = requestID
		}
	}
	return mapped
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
