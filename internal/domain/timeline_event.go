package domain

import "time"

// Actor tags written to TimelineEvent.ByChi.
const (
	ByChiSistema = "Sistema"
	ByChiAdmin   = "Admin"
)

// Labels and colors for events that are not status transitions.
const (
	LabelRichiestaInviata = "Richiesta inviata"
	LabelNotaAggiunta     = "Nota aggiunta"
	LabelEmailInviata     = "Email inviata"

	ColorInfo = "#0066CC"
)

// StatusLabelPrefix precedes the status label in transition events.
const StatusLabelPrefix = "Stato: "

// TransitionLabel builds the audit label for a transition to s.
func TransitionLabel(s RequestStatus) string {
	return StatusLabelPrefix + s.Label()
}

// TimelineEvent is an immutable audit trail entry. Seq is the authoritative order of events
// of the same request; CreatedAt is informational and may be skewed between writers.
type TimelineEvent struct {
	ID        string
	RequestID string
	Seq       int64
	Label     string
	ByChi     string
	Colore    string
	CreatedAt time.Time
}

// Before reports whether e sorts before other in audit order. Events without an allocated
// Seq fall back to CreatedAt.
func (e TimelineEvent) Before(other TimelineEvent) bool {
	if e.Seq != 0 && other.Seq != 0 && e.Seq != other.Seq {
		return e.Seq < other.Seq
	}
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.Seq < other.Seq
}
