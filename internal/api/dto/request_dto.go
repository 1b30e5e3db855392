package dto

import (
	"time"

	"github.com/spec-kit/segnala-service/internal/domain"
	"github.com/spec-kit/segnala-service/internal/service"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Titolo      string  `json:"titolo" validate:"required,max=200"`
	Descrizione string  `json:"descrizione" validate:"required,max=5000"`
	Modulo      string  `json:"modulo" validate:"required"`
	Tipo        string  `json:"tipo" validate:"required"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

// TransitionRequest payload for POST /requests/:id/status.
type TransitionRequest struct {
	Stato string `json:"stato" validate:"required"`
}

// NoteRequest payload for PUT /requests/:id/note.
type NoteRequest struct {
	Note string `json:"note" validate:"required"`
}

// NotifyRequest payload for POST /requests/:id/notify.
type NotifyRequest struct {
	Note string `json:"note" validate:"required"`
}

// RequestListQuery captures query filters for GET /requests.
type RequestListQuery struct {
	Stato     string `query:"stato"`
	Modulo    string `query:"modulo"`
	Categoria string `query:"categoria"`
	Search    string `query:"q"`
	Limit     int    `query:"limit" validate:"gte=0,lte=100"`
	Offset    int    `query:"offset" validate:"gte=0"`
}

// StatusResponse is the display form of a lifecycle state.
type StatusResponse struct {
	Value domain.RequestStatus `json:"value"`
	Label string               `json:"label"`
	Color string               `json:"color"`
}

// RequesterResponse carries the owning profile's display fields.
type RequesterResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// RequestSummary response.
type RequestSummary struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Titolo    string             `json:"titolo"`
	Modulo    domain.Module      `json:"modulo"`
	Categoria domain.Category    `json:"categoria"`
	Stato     StatusResponse     `json:"stato"`
	Requester *RequesterResponse `json:"requester,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// RequestDetailResponse provides full request info.
type RequestDetailResponse struct {
	RequestSummary
	Descrizione string                  `json:"descrizione"`
	NoteAdmin   *string                 `json:"note_admin"`
	Email       *string                 `json:"email"`
	Timeline    []TimelineEventResponse `json:"timeline"`
	Messages    []MessageResponse       `json:"messages"`
	Duration    DurationResponse        `json:"duration"`
}

// TimelineEventResponse is one audit entry, newest first in lists.
type TimelineEventResponse struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Label     string    `json:"label"`
	ByChi     string    `json:"by_chi"`
	Colore    string    `json:"colore"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResponse represents a thread message.
type MessageResponse struct {
	ID        string    `json:"id"`
	Mittente  string    `json:"mittente"`
	Testo     string    `json:"testo"`
	CreatedAt time.Time `json:"created_at"`
}

// DurationResponse reports elapsed handling time. End renders NotClosedLabel while open.
type DurationResponse struct {
	StartAt    time.Time  `json:"start_at"`
	EndAt      *time.Time `json:"end_at"`
	End        string     `json:"end"`
	Minutes    int        `json:"minutes"`
	Label      string     `json:"label"`
	InProgress bool       `json:"in_progress"`
}

// NotifyResponse reports a delivered update email.
type NotifyResponse struct {
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Event     *TimelineEventResponse `json:"event,omitempty"`
}

// StatsResponse aggregates counts for the admin dashboard.
type StatsResponse struct {
	Total      int            `json:"total"`
	ByStatus   []StatusCount  `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
}

// StatusCount pairs a state with its request count.
type StatusCount struct {
	StatusResponse
	Count int `json:"count"`
}

// NewStatusResponse renders a state with its catalog label and color.
func NewStatusResponse(s domain.RequestStatus) StatusResponse {
	info := s.Info()
	return StatusResponse{Value: s, Label: info.Label, Color: info.Color}
}

// NewRequestSummary maps a joined request row.
func NewRequestSummary(r domain.RequestWithRequester) RequestSummary {
	summary := RequestSummary{
		ID:        r.ID,
		UserID:    r.UserID,
		Titolo:    r.Titolo,
		Modulo:    r.Modulo,
		Categoria: r.Categoria,
		Stato:     NewStatusResponse(r.Stato),
		CreatedAt: r.CreatedAt,
	}
	if r.Requester != nil {
		summary.Requester = &RequesterResponse{
			ID:       r.Requester.ID,
			FullName: r.Requester.FullName(),
			Email:    r.Requester.Email,
		}
	}
	return summary
}

// NewRequestDetail maps the full detail view.
func NewRequestDetail(d *service.RequestDetail) RequestDetailResponse {
	resp := RequestDetailResponse{
		RequestSummary: NewRequestSummary(d.Request),
		Descrizione:    d.Request.Descrizione,
		NoteAdmin:      d.Request.NoteAdmin,
		Email:          d.Request.Email,
		Timeline:       NewTimeline(d.Timeline),
		Messages:       make([]MessageResponse, 0, len(d.Messages)),
		Duration:       NewDurationResponse(d.Duration),
	}
	for _, m := range d.Messages {
		resp.Messages = append(resp.Messages, MessageResponse{ID: m.ID, Mittente: m.Mittente, Testo: m.Testo, CreatedAt: m.CreatedAt})
	}
	return resp
}

// NewTimeline maps events keeping their order.
func NewTimeline(events []domain.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, NewTimelineEvent(e))
	}
	return out
}

func NewTimelineEvent(e domain.TimelineEvent) TimelineEventResponse {
	return TimelineEventResponse{ID: e.ID, Seq: e.Seq, Label: e.Label, ByChi: e.ByChi, Colore: e.Colore, CreatedAt: e.CreatedAt}
}

// NewDurationResponse maps a duration report.
func NewDurationResponse(r service.DurationReport) DurationResponse {
	resp := DurationResponse{
		StartAt:    r.StartAt,
		EndAt:      r.EndAt,
		End:        service.NotClosedLabel,
		Minutes:    r.Minutes,
		Label:      r.Label,
		InProgress: r.InProgress,
	}
	if r.EndAt != nil {
		resp.End = r.EndAt.Format(time.RFC3339)
	}
	return resp
}

// NewStatsResponse orders status counts by lifecycle order.
func NewStatsResponse(s *domain.RequestStats) StatsResponse {
	resp := StatsResponse{
		Total:      s.Total,
		ByStatus:   make([]StatusCount, 0, len(domain.Statuses)),
		ByCategory: make(map[string]int, len(s.ByCategory)),
	}
	for _, st := range domain.Statuses {
		resp.ByStatus = append(resp.ByStatus, StatusCount{StatusResponse: NewStatusResponse(st), Count: s.ByStatus[st]})
	}
	for c, n := range s.ByCategory {
		resp.ByCategory[string(c)] = n
	}
	return resp
}
