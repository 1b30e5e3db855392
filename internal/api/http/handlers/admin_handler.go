package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/segnala-service/internal/api/dto"
	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/service"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// ProfileDirectory manages portal profiles.
type ProfileDirectory interface {
	List(ctx context.Context, actor domain.Actor) ([]domain.Profile, error)
	Update(ctx context.Context, actor domain.Actor, id string, input service.ProfileUpdateInput) (*domain.Profile, error)
}

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	requests RequestLifecycle
	profiles ProfileDirectory
}

func NewAdminHandler(requests RequestLifecycle, profiles ProfileDirectory) *AdminHandler {
	return &AdminHandler{requests: requests, profiles: profiles}
}

// Stats GET /api/admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	stats, err := h.requests.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatsResponse(stats)})
}

// ListProfiles GET /api/admin/profiles.
func (h *AdminHandler) ListProfiles(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	profiles, err := h.profiles.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	out := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, dto.NewProfileResponse(&profiles[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// UpdateProfile PUT /api/admin/profiles/:id.
func (h *AdminHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	profile, err := h.profiles.Update(c.UserContext(), actor, c.Params("id"), service.ProfileUpdateInput{
		Nome:    req.Nome,
		Cognome: req.Cognome,
		Ruolo:   domain.Role(req.Ruolo),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(profile)})
}
