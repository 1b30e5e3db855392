package domain

import "time"

// Message is a thread entry attached to a request.
type Message struct {
	ID        string
	RequestID string
	Mittente  string
	Testo     string
	CreatedAt time.Time
}
