package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/segnala-service/internal/api/dto"
	"github.com/spec-kit/segnala-service/internal/auth"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// Me GET /api/me returns the authenticated profile.
func Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(principal.Profile)})
}
