package policy

import (
	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// Policy is the immutable auto-reply policy, built once at startup.
type Policy struct {
	autoReplyEnabled    bool
	confidenceThreshold float64
	safeIntents         map[domain.Intent]struct{}
	sensitiveIntents    map[domain.Intent]struct{}
}

// FromConfig builds a Policy from configuration.
func FromConfig(cfg config.PolicyConfig) Policy {
	return Policy{
		autoReplyEnabled:    cfg.AutoReplyEnabled,
		confidenceThreshold: cfg.ConfidenceThreshold,
		safeIntents:         intentSet(cfg.SafeIntents),
		sensitiveIntents:    intentSet(cfg.SensitiveIntents),
	}
}

// New builds a Policy directly; used by tests.
func New(autoReply bool, threshold float64, safe, sensitive []string) Policy {
	return Policy{
		autoReplyEnabled:    autoReply,
		confidenceThreshold: threshold,
		safeIntents:         intentSet(safe),
		sensitiveIntents:    intentSet(sensitive),
	}
}

func intentSet(labels []string) map[domain.Intent]struct{} {
	set := make(map[domain.Intent]struct{}, len(labels))
	for _, label := range labels {
		set[domain.NormalizeIntent(label)] = struct{}{}
	}
	return set
}

// Decide derives the action decision for one classification. Pure function,
// no I/O. A private draft note is always produced so the agent sees the
// model's reasoning. Sensitive intents escalate and never auto-send;
// escalation strictly dominates auto-reply.
func (p Policy) Decide(result domain.ClassificationResult, targetTicketID int64) domain.ActionDecision {
	decision := domain.ActionDecision{
		PublishPrivateNote: true,
		TargetTicketID:     targetTicketID,
	}

	if _, sensitive := p.sensitiveIntents[result.Intent]; sensitive {
		decision.Escalate = true
		return decision
	}

	_, safe := p.safeIntents[result.Intent]
	decision.SendPublicReply = p.autoReplyEnabled && safe &&
		result.Confidence >= p.confidenceThreshold
	return decision
}
