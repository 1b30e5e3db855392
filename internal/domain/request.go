package domain

import "time"

// RequestStatus enumerates lifecycle states for requests.
type RequestStatus string

const (
	StatusInviata     RequestStatus = "inviata"
	StatusPresa       RequestStatus = "presa"
	StatusTest        RequestStatus = "test"
	StatusChiarimenti RequestStatus = "chiarimenti"
	StatusCompletato  RequestStatus = "completato"
)

// StatusInfo is the display label and color bound to a status.
type StatusInfo struct {
	Label string
	Color string
}

// statusCatalog is the only label/color table; renderer, state machine and notifier all read it.
var statusCatalog = map[RequestStatus]StatusInfo{
	StatusInviata:     {Label: "Inviata", Color: "#5A6872"},
	StatusPresa:       {Label: "Presa in Carico", Color: "#C97B00"},
	StatusTest:        {Label: "In Test", Color: "#6B3FA0"},
	StatusChiarimenti: {Label: "Chiarimenti Richiesti", Color: "#DC2626"},
	StatusCompletato:  {Label: "Completato", Color: "#008a4b"},
}

// Statuses lists states in lifecycle order.
var Statuses = []RequestStatus{StatusInviata, StatusPresa, StatusTest, StatusChiarimenti, StatusCompletato}

// IsValid reports whether s belongs to the closed status set.
func (s RequestStatus) IsValid() bool {
	_, ok := statusCatalog[s]
	return ok
}

// Info returns label and color; unknown values render as Inviata.
func (s RequestStatus) Info() StatusInfo {
	if info, ok := statusCatalog[s]; ok {
		return info
	}
	return statusCatalog[StatusInviata]
}

func (s RequestStatus) Label() string { return s.Info().Label }

func (s RequestStatus) Color() string { return s.Info().Color }

// IsTerminal is informational only: completed requests may still be reopened.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompletato
}

// Module is the software module a request refers to.
type Module string

const (
	ModuleWebsor   Module = "WEBSOR"
	ModuleMGO      Module = "MGO"
	ModuleMGEP     Module = "MGEP"
	ModuleAlerTeam Module = "ALERTEAM"
)

// Modules lists the accepted modules.
var Modules = []Module{ModuleWebsor, ModuleMGO, ModuleMGEP, ModuleAlerTeam}

func (m Module) IsValid() bool {
	for _, candidate := range Modules {
		if candidate == m {
			return true
		}
	}
	return false
}

// Category classifies the request (stored as both tipo and categoria).
type Category string

const (
	CategoryBug           Category = "Bug"
	CategoryMiglioramento Category = "Miglioramento"
	CategoryNuovaFunzione Category = "Nuova funzione"
	CategoryAltro         Category = "Altro"
)

// Categories lists the accepted categories.
var Categories = []Category{CategoryBug, CategoryMiglioramento, CategoryNuovaFunzione, CategoryAltro}

func (c Category) IsValid() bool {
	for _, candidate := range Categories {
		if candidate == c {
			return true
		}
	}
	return false
}

// Request is the aggregate for a submitted issue report.
//
// Stato and NoteAdmin are written only by the lifecycle service.
type Request struct {
	ID          string
	UserID      string
	Titolo      string
	Descrizione string
	Modulo      Module
	Categoria   Category
	Stato       RequestStatus
	NoteAdmin   *string
	Email       *string
	CreatedAt   time.Time
}

// RequestWithRequester joins the owning profile's display fields.
type RequestWithRequester struct {
	Request
	Requester *Profile
}

// RecipientEmail resolves the notification address: request email first, then the profile.
func (r RequestWithRequester) RecipientEmail() string {
	if r.Email != nil && *r.Email != "" {
		return *r.Email
	}
	if r.Requester != nil {
		return r.Requester.Email
	}
	return ""
}

// RequestStats aggregates request counts for the admin dashboard.
type RequestStats struct {
	Total      int                   `json:"total"`
	ByStatus   map[RequestStatus]int `json:"by_status"`
	ByCategory map[Category]int      `json:"by_category"`
}
