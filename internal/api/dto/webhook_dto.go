package dto

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// WebhookTicket is the nested ticket object some webhook configurations send.
type WebhookTicket struct {
	ID              json.RawMessage `json:"id"`
	Subject         string          `json:"subject"`
	Description     string          `json:"description"`
	DescriptionText string          `json:"description_text"`
	Email           string          `json:"email"`
	RequesterEmail  string          `json:"requester_email"`
	Name            string          `json:"name"`
	CustomFields    map[string]any  `json:"custom_fields"`
}

// WebhookPayload accepts both webhook shapes: ticket fields at the top level
// or nested under "ticket". Top-level fields win when both are present.
type WebhookPayload struct {
	EventType       string          `json:"event_type"`
	ID              json.RawMessage `json:"id"`
	Subject         string          `json:"subject"`
	Description     string          `json:"description"`
	DescriptionText string          `json:"description_text"`
	Email           string          `json:"email"`
	RequesterEmail  string          `json:"requester_email"`
	Name            string          `json:"name"`
	CustomFields    map[string]any  `json:"custom_fields"`
	Ticket          *WebhookTicket  `json:"ticket"`
}

// Normalize flattens the payload into a TicketEvent. A zero ticket id means
// neither shape carried one; the caller rejects that as malformed input.
func (p WebhookPayload) Normalize() domain.TicketEvent {
	event := domain.TicketEvent{
		EventType:      p.EventType,
		RawTicketID:    parseID(p.ID),
		Subject:        p.Subject,
		Body:           firstNonEmpty(p.DescriptionText, p.Description),
		RequesterEmail: firstNonEmpty(p.RequesterEmail, p.Email),
		RequesterName:  p.Name,
		CustomFields:   p.CustomFields,
	}

	if p.Ticket != nil {
		if event.RawTicketID == 0 {
			event.RawTicketID = parseID(p.Ticket.ID)
		}
		if event.Subject == "" {
			event.Subject = p.Ticket.Subject
		}
		if event.Body == "" {
			event.Body = firstNonEmpty(p.Ticket.DescriptionText, p.Ticket.Description)
		}
		if event.RequesterEmail == "" {
			event.RequesterEmail = firstNonEmpty(p.Ticket.RequesterEmail, p.Ticket.Email)
		}
		if event.RequesterName == "" {
			event.RequesterName = p.Ticket.Name
		}
		if event.CustomFields == nil {
			event.CustomFields = p.Ticket.CustomFields
		}
	}
	return event
}

// parseID accepts numeric and stringified ids; webhook templates disagree on
// which they send.
func parseID(raw json.RawMessage) int64 {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return 0
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
