package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/segnala-service/internal/domain"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// RequireAdmin ensures the caller's profile has the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.IsAdmin() {
			return apperrors.NewRoleRequired(string(domain.RoleAdmin))
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
