package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/segnala-service/internal/domain"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

const principalKey = "auth_principal"

// ProfileLookup resolves the profile behind a token subject.
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// Principal represents the authenticated caller.
type Principal struct {
	Profile *domain.Profile
	Actor   domain.Actor
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	profiles ProfileLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, profiles ProfileLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, profiles: profiles}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	profile, err := m.profiles.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		mapped := apperrors.ToDomainError(err)
		if errors.Is(err, pgx.ErrNoRows) || mapped.Code == apperrors.CodeNotFound {
			return apperrors.NewUnauthorized("profile not found")
		}
		return mapped
	}

	c.Locals(principalKey, &Principal{Profile: profile, Actor: domain.ActorFromProfile(profile)})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorFromContext returns the actor handed to the core; ok is false when unauthenticated.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal == nil {
		return domain.Actor{}, false
	}
	return principal.Actor, true
}
