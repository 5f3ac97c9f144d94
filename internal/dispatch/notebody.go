package dispatch

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// formatNote renders the private AI-assist note an agent sees on the ticket.
func formatNote(result domain.ClassificationResult, decision domain.ActionDecision) string {
	var b strings.Builder

	b.WriteString("**AI Assist (draft)**\n\n")
	fmt.Fprintf(&b, "**Intent:** %s\n", result.Intent)
	fmt.Fprintf(&b, "**Confidence:** %.2f\n\n", result.Confidence)
	fmt.Fprintf(&b, "**Sentiment:** %s\n\n", result.Sentiment)
	fmt.Fprintf(&b, "**Summary:**\n%s\n\n", result.Summary)
	fmt.Fprintf(&b, "**Draft Reply (agent can edit & send):**\n%s\n", result.ReplyDraft)

	if len(result.KBSuggestions) > 0 {
		b.WriteString("\n**KB Suggestions:**\n")
		for _, suggestion := range result.KBSuggestions {
			fmt.Fprintf(&b, "- %s\n", suggestion)
		}
	}

	switch {
	case decision.Escalate:
		b.WriteString("\n_Escalated: sensitive category, auto-reply withheld. Please review._\n")
	case decision.SendPublicReply:
		b.WriteString("\n_The draft reply above was sent to the requester automatically._\n")
	default:
		b.WriteString("\n_AI-generated draft. Please review before sending._\n")
	}
	return b.String()
}
