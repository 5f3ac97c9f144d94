package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

const fallbackSummaryLimit = 500

const fallbackReply = "Thank you for reaching out. We have received your " +
	"request and a support agent will get back to you shortly."

// Classifier builds prompts, invokes the model service and parses the result.
// Every failure mode degrades to a deterministic UNKNOWN result; the
// classifier never propagates an error into the pipeline.
type Classifier struct {
	client CompletionClient
	cfg    config.OpenAIConfig
	logger *zap.Logger
}

// NewClassifier constructs a classifier around any completion client.
func NewClassifier(client CompletionClient, cfg config.OpenAIConfig, logger *zap.Logger) *Classifier {
	return &Classifier{client: client, cfg: cfg, logger: logger}
}

// Classify asks the model to classify the ticket and draft a reply, grounded
// on the supplied knowledge match.
func (c *Classifier) Classify(ctx context.Context, ticket domain.Ticket, match domain.KnowledgeMatch) domain.ClassificationResult {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	system := buildSystemPrompt(c.cfg.ReplyLanguage)
	user := buildUserPrompt(ticket, match)

	raw, err := c.client.Complete(callCtx, system, user)
	if err != nil {
		c.logger.Warn("model call failed, using fallback classification",
			zap.Int64("ticket_id", ticket.MasterID), zap.Error(err))
		return c.fallback(ticket)
	}

	result, err := parseResult(raw)
	if err != nil {
		c.logger.Warn("model output unparseable, using fallback classification",
			zap.Int64("ticket_id", ticket.MasterID), zap.Error(err))
		return c.fallback(ticket)
	}

	c.logger.Info("ticket classified",
		zap.Int64("ticket_id", ticket.MasterID),
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence))
	return *result
}

// fallback is the deterministic result used when the model is unreachable or
// emits an unusable payload.
func (c *Classifier) fallback(ticket domain.Ticket) domain.ClassificationResult {
	summary := ticket.Body
	if len(summary) > fallbackSummaryLimit {
		summary = summary[:fallbackSummaryLimit]
	}
	return domain.ClassificationResult{
		Intent:     domain.IntentUnknown,
		Confidence: 0,
		Summary:    summary,
		Sentiment:  domain.SentimentUnknown,
		ReplyDraft: fallbackReply,
		Fallback:   true,
	}
}
