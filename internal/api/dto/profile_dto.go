package dto

import (
	"time"

	"github.com/spec-kit/segnala-service/internal/domain"
)

// ProfileResponse is the public view of a profile.
type ProfileResponse struct {
	ID        string      `json:"id"`
	Nome      string      `json:"nome"`
	Cognome   string      `json:"cognome"`
	Email     string      `json:"email"`
	Ruolo     domain.Role `json:"ruolo"`
	AvatarURL *string     `json:"avatar_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// ProfileUpdateRequest payload for PUT /admin/profiles/:id.
type ProfileUpdateRequest struct {
	Nome    string `json:"nome" validate:"max=100"`
	Cognome string `json:"cognome" validate:"max=100"`
	Ruolo   string `json:"ruolo" validate:"required,oneof=richiedente admin"`
}

func NewProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Nome:      p.Nome,
		Cognome:   p.Cognome,
		Email:     p.Email,
		Ruolo:     p.Ruolo,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
	}
}
