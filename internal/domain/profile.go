package domain

import (
	"strings"
	"time"
)

// Role gates which lifecycle operations a profile may perform.
type Role string

const (
	RoleRichiedente Role = "richiedente"
	RoleAdmin       Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleRichiedente || r == RoleAdmin
}

// Profile is the portal identity shared with the authentication principal.
type Profile struct {
	ID        string
	Nome      string
	Cognome   string
	Email     string
	Ruolo     Role
	AvatarURL *string
	CreatedAt time.Time
}

// FullName joins nome and cognome.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.Nome + " " + p.Cognome)
}

// Actor is the authenticated principal handed to the core.
type Actor struct {
	ID    string
	Ruolo Role
}

func (a Actor) IsAdmin() bool {
	return a.Ruolo == RoleAdmin
}

// ActorFromProfile builds the actor for an authenticated profile.
func ActorFromProfile(p *Profile) Actor {
	return Actor{ID: p.ID, Ruolo: p.Ruolo}
}
