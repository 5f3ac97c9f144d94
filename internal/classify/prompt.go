package classify

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// buildSystemPrompt is the fixed policy instruction sent with every
// classification request.
func buildSystemPrompt(replyLanguage string) string {
	if strings.TrimSpace(replyLanguage) == "" {
		replyLanguage = "English"
	}
	return fmt.Sprintf("You are a customer support assistant. "+
		"Respond only in %s. "+
		"Use only the reference content provided in the user message for factual claims; "+
		"never state fees, dates, links or other facts that are not listed there. "+
		"Return only a valid JSON object with keys: "+
		"intent (one word, upper case), confidence (number between 0 and 1), "+
		"summary (2-3 lines), sentiment (Angry/Neutral/Positive), "+
		"reply_draft (friendly reply the agent can send), "+
		"kb_suggestions (list of short titles or URLs).", replyLanguage)
}

// buildUserPrompt serializes the ticket and knowledge match for the model.
func buildUserPrompt(ticket domain.Ticket, match domain.KnowledgeMatch) string {
	var b strings.Builder

	b.WriteString("Ticket subject:\n")
	b.WriteString(ticket.Subject)
	b.WriteString("\n\nTicket body:\n")
	b.WriteString(ticket.Body)

	if ticket.Requester.DisplayName != "" {
		b.WriteString("\n\nRequester name: ")
		b.WriteString(ticket.Requester.DisplayName)
	}

	b.WriteString("\n\nReference content:\n")
	if match.Empty() {
		b.WriteString("(none available)\n")
	} else {
		for _, record := range match.Records {
			b.WriteString("- ")
			b.WriteString(record.Content())
			b.WriteString("\n")
		}
	}

	b.WriteString("\nReturn only a valid JSON object. Example:\n")
	b.WriteString(`{"intent":"BILLING","confidence":0.92,"summary":"...","sentiment":"Angry","reply_draft":"...","kb_suggestions":["KB1","KB2"]}`)
	b.WriteString("\n")
	return b.String()
}
