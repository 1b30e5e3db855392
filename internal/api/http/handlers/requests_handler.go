package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/segnala-service/internal/api/dto"
	"github.com/spec-kit/segnala-service/internal/auth"
	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/service"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// RequestLifecycle is the request core consumed by the HTTP layer.
type RequestLifecycle interface {
	Create(ctx context.Context, actor domain.Actor, input service.CreateRequestInput) (*domain.Request, error)
	Transition(ctx context.Context, actor domain.Actor, requestID string, newState domain.RequestStatus) (*domain.Request, error)
	SaveNote(ctx context.Context, actor domain.Actor, requestID, note string) (*domain.Request, error)
	Get(ctx context.Context, actor domain.Actor, requestID string) (*service.RequestDetail, error)
	Timeline(ctx context.Context, actor domain.Actor, requestID string) ([]domain.TimelineEvent, error)
	List(ctx context.Context, actor domain.Actor, filter service.ListFilter) ([]domain.RequestWithRequester, error)
	Stats(ctx context.Context, actor domain.Actor) (*domain.RequestStats, error)
}

// Notifier sends update emails to requesters.
type Notifier interface {
	Notify(ctx context.Context, actor domain.Actor, requestID, note string) (*service.NotifyResult, error)
}

// RequestsHandler manages request endpoints.
type RequestsHandler struct {
	requests RequestLifecycle
	notifier Notifier
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests RequestLifecycle, notifier Notifier) *RequestsHandler {
	return &RequestsHandler{requests: requests, notifier: notifier}
}

// CreateRequest POST /api/requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	created, err := h.requests.Create(c.UserContext(), actor, service.CreateRequestInput{
		Titolo:      req.Titolo,
		Descrizione: req.Descrizione,
		Modulo:      domain.Module(req.Modulo),
		Tipo:        domain.Category(req.Tipo),
		Email:       req.Email,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestSummary(domain.RequestWithRequester{Request: *created})})
}

// ListRequests GET /api/requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var query dto.RequestListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(query); err != nil {
		return err
	}

	items, err := h.requests.List(c.UserContext(), actor, listFilter(query))
	if err != nil {
		return err
	}
	out := make([]dto.RequestSummary, 0, len(items))
	for _, item := range items {
		out = append(out, dto.NewRequestSummary(item))
	}
	return c.JSON(fiber.Map{"data": out})
}

// GetRequest GET /api/requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	detail, err := h.requests.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestDetail(detail)})
}

// GetTimeline GET /api/requests/:id/timeline.
func (h *RequestsHandler) GetTimeline(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	events, err := h.requests.Timeline(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTimeline(events)})
}

// Transition POST /api/requests/:id/status.
func (h *RequestsHandler) Transition(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	updated, err := h.requests.Transition(c.UserContext(), actor, c.Params("id"), domain.RequestStatus(req.Stato))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestSummary(domain.RequestWithRequester{Request: *updated})})
}

// SaveNote PUT /api/requests/:id/note.
func (h *RequestsHandler) SaveNote(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	updated, err := h.requests.SaveNote(c.UserContext(), actor, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": updated.ID, "note_admin": updated.NoteAdmin}})
}

// Notify POST /api/requests/:id/notify.
func (h *RequestsHandler) Notify(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.NotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	result, err := h.notifier.Notify(c.UserContext(), actor, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	resp := dto.NotifyResponse{Recipient: result.Recipient, Subject: result.Subject}
	if result.Event != nil {
		ev := dto.NewTimelineEvent(*result.Event)
		resp.Event = &ev
	}
	return c.JSON(fiber.Map{"data": resp})
}

func requireActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func listFilter(q dto.RequestListQuery) service.ListFilter {
	filter := service.ListFilter{Search: q.Search, Limit: q.Limit, Offset: q.Offset}
	if q.Stato != "" {
		s := domain.RequestStatus(q.Stato)
		filter.Stato = &s
	}
	if q.Modulo != "" {
		m := domain.Module(q.Modulo)
		filter.Modulo = &m
	}
	if q.Categoria != "" {
		cat := domain.Category(q.Categoria)
		filter.Categoria = &cat
	}
	return filter
}
