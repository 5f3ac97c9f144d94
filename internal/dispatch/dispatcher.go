package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/freshdesk"
	"github.com/spec-kit/ticket-autopilot/pkg/util/retryutil"
)

// TicketingClient is the outbound surface the dispatcher writes through.
type TicketingClient interface {
	CreateNote(ctx context.Context, ticketID int64, body string, private bool) error
	CreateReply(ctx context.Context, ticketID int64, body string) error
	UpdateTicket(ctx context.Context, ticketID int64, update freshdesk.TicketUpdate) error
}

// Dispatcher performs the side-effecting calls decided by the action gate.
// Retry policy lives here, not in the client: transient failures are retried
// with exponential backoff, permanent ones are reported immediately. The
// note, escalation and reply side effects are independent; one failing never
// prevents the others.
type Dispatcher struct {
	client   TicketingClient
	logger   *zap.Logger
	retryCfg retryutil.Config
	assignee int64
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(client TicketingClient, cfg config.PolicyConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		logger:   logger,
		retryCfg: retryutil.Default(),
		assignee: cfg.EscalationAssignee,
	}
}

// Dispatch executes the decision and returns a best-effort report. It never
// returns an error: individual failures are captured per action.
func (d *Dispatcher) Dispatch(ctx context.Context, decision domain.ActionDecision, result domain.ClassificationResult, ticket domain.Ticket) domain.DispatchReport {
	report := domain.DispatchReport{}
	target := decision.TargetTicketID

	if decision.PublishPrivateNote {
		err := d.attempt(ctx, func() error {
			return d.client.CreateNote(ctx, target, formatNote(result, decision), true)
		})
		if err != nil {
			report.NoteError = err.Error()
			d.logger.Error("private note dispatch failed",
				zap.Int64("ticket_id", target), zap.Error(err))
		} else {
			report.NoteCreated = true
		}
	}

	if decision.Escalate {
		priority := freshdesk.PriorityUrgent
		update := freshdesk.TicketUpdate{Priority: &priority}
		if d.assignee > 0 {
			assignee := d.assignee
			update.ResponderID = &assignee
		}
		err := d.attempt(ctx, func() error {
			return d.client.UpdateTicket(ctx, target, update)
		})
		if err != nil {
			report.EscalateError = err.Error()
			d.logger.Error("escalation dispatch failed",
				zap.Int64("ticket_id", target), zap.Error(err))
		} else {
			report.Escalated = true
		}
	}

	if decision.SendPublicReply {
		err := d.attempt(ctx, func() error {
			return d.client.CreateReply(ctx, target, result.ReplyDraft)
		})
		if err != nil {
			report.ReplyError = err.Error()
			d.logger.Error("public reply dispatch failed",
				zap.Int64("ticket_id", target), zap.Error(err))
		} else {
			report.ReplySent = true
			d.logger.Info("auto-reply sent", zap.Int64("ticket_id", target))
		}
	}

	return report
}

func (d *Dispatcher) attempt(ctx context.Context, op func() error) error {
	return retryutil.Do(ctx, d.retryCfg, freshdesk.IsTransient, op)
}
