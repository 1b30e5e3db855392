package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/repository"
	apperrors "github.com/spec-kit/segnala-service/pkg/util"
)

// ProfileService exposes profile administration.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

// ProfileUpdateInput carries the editable profile fields.
type ProfileUpdateInput struct {
	Nome    string
	Cognome string
	Ruolo   domain.Role
}

// NewProfileService builds the service.
func NewProfileService(profiles repository.ProfileRepository, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{profiles: profiles, logger: logger}
}

// GetByID loads a profile by id.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// List returns all profiles; admin only.
func (s *ProfileService) List(ctx context.Context, actor domain.Actor) ([]domain.Profile, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewRoleRequired(string(domain.RoleAdmin))
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return profiles, nil
}

// Update changes nome, cognome and ruolo; admin only.
func (s *ProfileService) Update(ctx context.Context, actor domain.Actor, id string, input ProfileUpdateInput) (*domain.Profile, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewRoleRequired(string(domain.RoleAdmin))
	}
	if !input.Ruolo.IsValid() {
		return nil, apperrors.NewValidationError("invalid ruolo", map[string]any{"ruolo": input.Ruolo})
	}

	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	profile.Nome = strings.TrimSpace(input.Nome)
	profile.Cognome = strings.TrimSpace(input.Cognome)
	profile.Ruolo = input.Ruolo

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("profile updated",
		zap.String("profile_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("ruolo", string(profile.Ruolo)))
	return profile, nil
}
