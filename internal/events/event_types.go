package events

import (
	"time"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDraftPosted      EventType = "draft_posted"
	EventReplySent        EventType = "reply_sent"
	EventTicketEscalated  EventType = "ticket_escalated"
	EventAutomationFailed EventType = "automation_failed"
)

// Event represents a pipeline event emitted after dispatch.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DraftPostedPayload payload.
type DraftPostedPayload struct {
	Intent     domain.Intent `json:"intent"`
	Confidence float64       `json:"confidence"`
	Fallback   bool          `json:"fallback"`
}

// ReplySentPayload payload.
type ReplySentPayload struct {
	Intent     domain.Intent `json:"intent"`
	Confidence float64       `json:"confidence"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Intent    domain.Intent    `json:"intent"`
	Sentiment domain.Sentiment `json:"sentiment"`
}

// AutomationFailedPayload payload.
type AutomationFailedPayload struct {
	NoteError     string `json:"note_error,omitempty"`
	ReplyError    string `json:"reply_error,omitempty"`
	EscalateError string `json:"escalate_error,omitempty"`
}
