package events

import (
	"time"

	"github.com/spec-kit/segnala-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated   EventType = "request_created"
	EventStatusChanged    EventType = "request_status_changed"
	EventNoteSaved        EventType = "request_note_saved"
	EventNotificationSent EventType = "request_notification_sent"
)

// Event is published after a lifecycle operation has committed.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Modulo    domain.Module   `json:"modulo"`
	Categoria domain.Category `json:"categoria"`
	Titolo    string          `json:"titolo"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// NoteSavedPayload payload.
type NoteSavedPayload struct {
	Length int `json:"length"`
}

// NotificationSentPayload payload.
type NotificationSentPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
}
