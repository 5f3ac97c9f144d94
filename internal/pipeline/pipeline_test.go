package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/events"
	"github.com/spec-kit/ticket-autopilot/internal/observability"
	"github.com/spec-kit/ticket-autopilot/internal/policy"
	apperrors "github.com/spec-kit/ticket-autopilot/pkg/util"
)

type stubResolver struct{ ticket domain.Ticket }

func (s *stubResolver) Resolve(ctx context.Context, rawID int64) domain.Ticket {
	ticket := s.ticket
	if ticket.ID == 0 {
		ticket.ID = rawID
		ticket.MasterID = rawID
	}
	return ticket
}

type stubSearcher struct{ match domain.KnowledgeMatch }

func (s *stubSearcher) Search(queryText string) domain.KnowledgeMatch { return s.match }

type stubClassifier struct {
	result domain.ClassificationResult
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, ticket domain.Ticket, match domain.KnowledgeMatch) domain.ClassificationResult {
	s.calls++
	return s.result
}

type recordingDispatcher struct {
	decision domain.ActionDecision
	report   domain.DispatchReport
	calls    int
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, decision domain.ActionDecision, result domain.ClassificationResult, ticket domain.Ticket) domain.DispatchReport {
	r.calls++
	r.decision = decision
	return r.report
}

type stubGuard struct{ allow bool }

func (s *stubGuard) Begin(ctx context.Context, event domain.TicketEvent) bool { return s.allow }

func defaultPolicy() policy.Policy {
	return policy.New(true, 0.95,
		[]string{"GENERAL", "COURSE_INQUIRY"},
		[]string{"BILLING", "PAYMENT", "REFUND"})
}

func newTestPipeline(deps Dependencies) *Pipeline {
	if deps.Knowledge == nil {
		deps.Knowledge = &stubSearcher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Policy = defaultPolicy()
	return New(deps)
}

func TestRejectsEventWithoutTicketID(t *testing.T) {
	pipe := newTestPipeline(Dependencies{
		Resolver:   &stubResolver{},
		Classifier: &stubClassifier{},
		Dispatcher: &recordingDispatcher{},
	})

	_, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{Subject: "no id"})
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "MALFORMED_INPUT", domainErr.Code)
}

func TestSensitiveIntentEscalates(t *testing.T) {
	// Scenario: refund-request event classified BILLING at 0.9.
	dispatcher := &recordingDispatcher{report: domain.DispatchReport{NoteCreated: true, Escalated: true}}
	pipe := newTestPipeline(Dependencies{
		Resolver: &stubResolver{},
		Classifier: &stubClassifier{result: domain.ClassificationResult{
			Intent:     domain.IntentBilling,
			Confidence: 0.9,
		}},
		Dispatcher: dispatcher,
	})

	result, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{
		RawTicketID: 42,
		Subject:     "Refund request",
		Body:        "Please refund my payment",
	})
	require.NoError(t, err)

	assert.True(t, dispatcher.decision.PublishPrivateNote)
	assert.True(t, dispatcher.decision.Escalate)
	assert.False(t, dispatcher.decision.SendPublicReply)
	assert.Equal(t, int64(42), result.MasterTicketID)
}

func TestSafeIntentAutoReplies(t *testing.T) {
	dispatcher := &recordingDispatcher{report: domain.DispatchReport{NoteCreated: true, ReplySent: true}}
	pipe := newTestPipeline(Dependencies{
		Resolver: &stubResolver{},
		Classifier: &stubClassifier{result: domain.ClassificationResult{
			Intent:     domain.IntentGeneral,
			Confidence: 0.97,
		}},
		Dispatcher: dispatcher,
	})

	_, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{RawTicketID: 5, Body: "hi"})
	require.NoError(t, err)
	assert.True(t, dispatcher.decision.SendPublicReply)
}

func TestModelFailureStillPostsPrivateNote(t *testing.T) {
	// Fallback classification flows through the gate: note yes, reply no.
	dispatcher := &recordingDispatcher{report: domain.DispatchReport{NoteCreated: true}}
	pipe := newTestPipeline(Dependencies{
		Resolver: &stubResolver{},
		Classifier: &stubClassifier{result: domain.ClassificationResult{
			Intent:     domain.IntentUnknown,
			Confidence: 0,
			Fallback:   true,
		}},
		Dispatcher: dispatcher,
	})

	result, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{RawTicketID: 9, Body: "help"})
	require.NoError(t, err)

	assert.True(t, dispatcher.decision.PublishPrivateNote)
	assert.False(t, dispatcher.decision.SendPublicReply)
	assert.True(t, result.Report.NoteCreated)
	assert.True(t, result.Classification.Fallback)
}

func TestDuplicateDeliverySuppressed(t *testing.T) {
	classifier := &stubClassifier{}
	dispatcher := &recordingDispatcher{}
	pipe := newTestPipeline(Dependencies{
		Resolver:   &stubResolver{},
		Classifier: classifier,
		Dispatcher: dispatcher,
		Guard:      &stubGuard{allow: false},
	})

	result, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{RawTicketID: 3})
	require.NoError(t, err)

	assert.True(t, result.Duplicate)
	assert.Zero(t, classifier.calls)
	assert.Zero(t, dispatcher.calls)
}

func TestDegradedResolutionUsesEventContent(t *testing.T) {
	classifier := &stubClassifier{result: domain.ClassificationResult{Intent: domain.IntentUnknown}}
	searcher := &stubSearcher{}
	pipe := newTestPipeline(Dependencies{
		Resolver:   &stubResolver{ticket: domain.Ticket{ID: 8, MasterID: 8, Degraded: true}},
		Knowledge:  searcher,
		Classifier: classifier,
		Dispatcher: &recordingDispatcher{},
	})

	result, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{
		RawTicketID:    8,
		Subject:        "Course link missing",
		Body:           "I did not get the course link",
		RequesterEmail: "Student@Example.com",
	})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
}

func TestEventsPublishedAfterDispatch(t *testing.T) {
	bus := events.NewInMemoryDispatcher()
	var seen []events.EventType
	for _, eventType := range []events.EventType{
		events.EventDraftPosted, events.EventReplySent,
		events.EventTicketEscalated, events.EventAutomationFailed,
	} {
		et := eventType
		bus.Subscribe(et, func(ctx context.Context, e events.Event) error {
			seen = append(seen, e.Type)
			return nil
		})
	}

	pipe := newTestPipeline(Dependencies{
		Resolver: &stubResolver{},
		Classifier: &stubClassifier{result: domain.ClassificationResult{
			Intent: domain.IntentBilling, Confidence: 0.9,
		}},
		Dispatcher: &recordingDispatcher{report: domain.DispatchReport{
			NoteCreated: true,
			Escalated:   true,
			ReplyError:  "",
		}},
		Events: bus,
	})

	_, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{RawTicketID: 12})
	require.NoError(t, err)
	assert.ElementsMatch(t, []events.EventType{events.EventDraftPosted, events.EventTicketEscalated}, seen)
}

func TestPipelineErrorNeverEscapesDispatchFailures(t *testing.T) {
	pipe := newTestPipeline(Dependencies{
		Resolver:   &stubResolver{},
		Classifier: &stubClassifier{result: domain.ClassificationResult{Intent: domain.IntentGeneral, Confidence: 0.99}},
		Dispatcher: &recordingDispatcher{report: domain.DispatchReport{
			NoteError:  "note failed",
			ReplyError: "reply failed",
		}},
	})

	result, err := pipe.HandleEvent(context.Background(), domain.TicketEvent{RawTicketID: 4})
	require.NoError(t, err)
	assert.True(t, result.Report.Partial())
	assert.False(t, errors.Is(err, context.Canceled))
}
