package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/events"
	"github.com/spec-kit/ticket-autopilot/internal/observability"
	"github.com/spec-kit/ticket-autopilot/internal/policy"
	apperrors "github.com/spec-kit/ticket-autopilot/pkg/util"
)

// TicketResolver resolves the canonical ticket for a raw id.
type TicketResolver interface {
	Resolve(ctx context.Context, rawID int64) domain.Ticket
}

// KnowledgeSearcher looks up reference content for a query.
type KnowledgeSearcher interface {
	Search(queryText string) domain.KnowledgeMatch
}

// TicketClassifier classifies a ticket against a knowledge match.
type TicketClassifier interface {
	Classify(ctx context.Context, ticket domain.Ticket, match domain.KnowledgeMatch) domain.ClassificationResult
}

// ActionDispatcher performs the side effects for a decision.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, decision domain.ActionDecision, result domain.ClassificationResult, ticket domain.Ticket) domain.DispatchReport
}

// DuplicateGuard claims an event's idempotency key; false means this
// delivery is a duplicate within the window.
type DuplicateGuard interface {
	Begin(ctx context.Context, event domain.TicketEvent) bool
}

// Result is the end-to-end outcome for one webhook event.
type Result struct {
	TicketID       int64                        `json:"ticket_id"`
	MasterTicketID int64                        `json:"master_ticket_id"`
	Duplicate      bool                         `json:"duplicate,omitempty"`
	Degraded       bool                         `json:"degraded,omitempty"`
	Classification *domain.ClassificationResult `json:"classification,omitempty"`
	Decision       *domain.ActionDecision       `json:"decision,omitempty"`
	Report         *domain.DispatchReport       `json:"report,omitempty"`
}

// Dependencies bundles collaborators for the pipeline.
type Dependencies struct {
	Resolver   TicketResolver
	Knowledge  KnowledgeSearcher
	Classifier TicketClassifier
	Policy     policy.Policy
	Dispatcher ActionDispatcher
	Guard      DuplicateGuard
	Events     events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// Pipeline runs one webhook event end to end: resolve identity, retrieve
// knowledge, classify and draft, gate, dispatch. Each event is an independent
// unit of work; the only shared state is the read-only knowledge store.
type Pipeline struct {
	resolver   TicketResolver
	knowledge  KnowledgeSearcher
	classifier TicketClassifier
	policy     policy.Policy
	dispatcher ActionDispatcher
	guard      DuplicateGuard
	events     events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// New constructs the pipeline.
func New(deps Dependencies) *Pipeline {
	return &Pipeline{
		resolver:   deps.Resolver,
		knowledge:  deps.Knowledge,
		classifier: deps.Classifier,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		guard:      deps.Guard,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// HandleEvent processes one normalized ticket event. A missing ticket id is
// the only rejected input; every downstream failure degrades and is surfaced
// in the result rather than returned as an error.
func (p *Pipeline) HandleEvent(ctx context.Context, event domain.TicketEvent) (*Result, error) {
	if event.RawTicketID <= 0 {
		return nil, apperrors.NewMalformedInput("ticket id not found in payload", nil)
	}

	if p.guard != nil && !p.guard.Begin(ctx, event) {
		p.metrics.RecordPipeline("ingest", "duplicate")
		return &Result{TicketID: event.RawTicketID, MasterTicketID: event.RawTicketID, Duplicate: true}, nil
	}

	ticket := p.resolver.Resolve(ctx, event.RawTicketID)
	p.mergeEventData(&ticket, event)
	if ticket.Degraded {
		p.metrics.RecordPipeline("resolve", "degraded")
	}

	match := p.knowledge.Search(ticket.Subject + " " + ticket.Body)

	classification := p.classifier.Classify(ctx, ticket, match)
	if classification.Fallback {
		p.metrics.RecordPipeline("classify", "fallback")
	} else {
		p.metrics.RecordPipeline("classify", "ok")
	}

	decision := p.policy.Decide(classification, ticket.MasterID)

	report := p.dispatcher.Dispatch(ctx, decision, classification, ticket)
	if report.Partial() {
		p.metrics.RecordPipeline("dispatch", "partial")
	} else {
		p.metrics.RecordPipeline("dispatch", "ok")
	}

	p.publishEvents(ctx, ticket, classification, decision, report)

	p.logger.Info("pipeline completed",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("master_ticket_id", ticket.MasterID),
		zap.String("intent", string(classification.Intent)),
		zap.Bool("escalated", decision.Escalate),
		zap.Bool("auto_replied", decision.SendPublicReply),
		zap.Bool("partial_failure", report.Partial()))

	return &Result{
		TicketID:       ticket.ID,
		MasterTicketID: ticket.MasterID,
		Degraded:       ticket.Degraded,
		Classification: &classification,
		Decision:       &decision,
		Report:         &report,
	}, nil
}

// mergeEventData backfills ticket fields from the webhook payload when the
// resolver could not supply them, so a degraded resolution still classifies
// on real content.
func (p *Pipeline) mergeEventData(ticket *domain.Ticket, event domain.TicketEvent) {
	if strings.TrimSpace(ticket.Subject) == "" {
		ticket.Subject = event.Subject
	}
	if strings.TrimSpace(ticket.Body) == "" {
		ticket.Body = event.Body
	}
	if ticket.Requester.Email == "" && event.RequesterEmail != "" {
		ticket.Requester.Email = strings.ToLower(strings.TrimSpace(event.RequesterEmail))
	}
	if ticket.Requester.DisplayName == "" {
		ticket.Requester.DisplayName = strings.TrimSpace(event.RequesterName)
	}
}

func (p *Pipeline) publishEvents(ctx context.Context, ticket domain.Ticket, classification domain.ClassificationResult, decision domain.ActionDecision, report domain.DispatchReport) {
	if p.events == nil {
		return
	}
	if report.NoteCreated {
		_ = p.events.Publish(ctx, events.Event{
			Type:     events.EventDraftPosted,
			TicketID: ticket.MasterID,
			Payload: events.DraftPostedPayload{
				Intent:     classification.Intent,
				Confidence: classification.Confidence,
				Fallback:   classification.Fallback,
			},
		})
	}
	if report.ReplySent {
		_ = p.events.Publish(ctx, events.Event{
			Type:     events.EventReplySent,
			TicketID: ticket.MasterID,
			Payload: events.ReplySentPayload{
				Intent:     classification.Intent,
				Confidence: classification.Confidence,
			},
		})
	}
	if report.Escalated {
		_ = p.events.Publish(ctx, events.Event{
			Type:     events.EventTicketEscalated,
			TicketID: ticket.MasterID,
			Payload: events.TicketEscalatedPayload{
				Intent:    classification.Intent,
				Sentiment: classification.Sentiment,
			},
		})
	}
	if report.Partial() {
		_ = p.events.Publish(ctx, events.Event{
			Type:     events.EventAutomationFailed,
			TicketID: ticket.MasterID,
			Payload: events.AutomationFailedPayload{
				NoteError:     report.NoteError,
				ReplyError:    report.ReplyError,
				EscalateError: report.EscalateError,
			},
		})
	}
}
