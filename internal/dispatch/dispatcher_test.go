package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/freshdesk"
)

// mockTicketing records outbound calls and serves scripted failures.
type mockTicketing struct {
	noteErrs    []error
	replyErrs   []error
	updateErrs  []error
	noteCalls   int
	replyCalls  int
	updateCalls int
	lastNote    string
	lastPrivate bool
	lastUpdate  freshdesk.TicketUpdate
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (m *mockTicketing) CreateNote(ctx context.Context, ticketID int64, body string, private bool) error {
	m.noteCalls++
	m.lastNote = body
	m.lastPrivate = private
	return popErr(&m.noteErrs)
}

func (m *mockTicketing) CreateReply(ctx context.Context, ticketID int64, body string) error {
	m.replyCalls++
	return popErr(&m.replyErrs)
}

func (m *mockTicketing) UpdateTicket(ctx context.Context, ticketID int64, update freshdesk.TicketUpdate) error {
	m.updateCalls++
	m.lastUpdate = update
	return popErr(&m.updateErrs)
}

func testDispatcher(client TicketingClient) *Dispatcher {
	d := NewDispatcher(client, config.PolicyConfig{EscalationAssignee: 99}, zap.NewNop())
	d.retryCfg.BaseDelay = time.Millisecond
	return d
}

func sampleResult() domain.ClassificationResult {
	return domain.ClassificationResult{
		Intent:     domain.IntentBilling,
		Confidence: 0.9,
		Summary:    "refund request",
		Sentiment:  domain.SentimentAngry,
		ReplyDraft: "We will process your refund.",
	}
}

func TestDispatchPostsPrivateNote(t *testing.T) {
	client := &mockTicketing{}
	decision := domain.ActionDecision{PublishPrivateNote: true, TargetTicketID: 7}

	report := testDispatcher(client).Dispatch(context.Background(), decision, sampleResult(), domain.Ticket{MasterID: 7})
	assert.True(t, report.NoteCreated)
	assert.True(t, client.lastPrivate)
	assert.Contains(t, client.lastNote, "AI Assist")
	assert.Contains(t, client.lastNote, "BILLING")
	assert.Zero(t, client.replyCalls)
	assert.Zero(t, client.updateCalls)
}

func TestDispatchEscalationUpdatesPriorityAndAssignee(t *testing.T) {
	client := &mockTicketing{}
	decision := domain.ActionDecision{PublishPrivateNote: true, Escalate: true, TargetTicketID: 7}

	report := testDispatcher(client).Dispatch(context.Background(), decision, sampleResult(), domain.Ticket{MasterID: 7})
	assert.True(t, report.Escalated)
	require.NotNil(t, client.lastUpdate.Priority)
	assert.Equal(t, freshdesk.PriorityUrgent, *client.lastUpdate.Priority)
	require.NotNil(t, client.lastUpdate.ResponderID)
	assert.Equal(t, int64(99), *client.lastUpdate.ResponderID)
	assert.Zero(t, client.replyCalls)
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	client := &mockTicketing{noteErrs: []error{
		errors.New("timeout"),
		&freshdesk.APIError{StatusCode: 503, Body: "unavailable"},
	}}
	decision := domain.ActionDecision{PublishPrivateNote: true, TargetTicketID: 7}

	report := testDispatcher(client).Dispatch(context.Background(), decision, sampleResult(), domain.Ticket{MasterID: 7})
	assert.True(t, report.NoteCreated)
	assert.Equal(t, 3, client.noteCalls)
}

func TestDispatchDoesNotRetryPermanentFailures(t *testing.T) {
	client := &mockTicketing{noteErrs: []error{
		&freshdesk.APIError{StatusCode: 400, Body: "bad payload"},
	}}
	decision := domain.ActionDecision{PublishPrivateNote: true, TargetTicketID: 7}

	report := testDispatcher(client).Dispatch(context.Background(), decision, sampleResult(), domain.Ticket{MasterID: 7})
	assert.False(t, report.NoteCreated)
	assert.NotEmpty(t, report.NoteError)
	assert.Equal(t, 1, client.noteCalls)
}

func TestDispatchActionsAreIndependent(t *testing.T) {
	// The note permanently fails; the reply must still be attempted, and
	// vice versa the report records both outcomes.
	client := &mockTicketing{noteErrs: []error{
		&freshdesk.APIError{StatusCode: 400, Body: "bad"},
	}}
	decision := domain.ActionDecision{PublishPrivateNote: true, SendPublicReply: true, TargetTicketID: 7}

	report := testDispatcher(client).Dispatch(context.Background(), decision, sampleResult(), domain.Ticket{MasterID: 7})
	assert.False(t, report.NoteCreated)
	assert.True(t, report.ReplySent)
	assert.True(t, report.Partial())
	assert.Equal(t, 1, client.replyCalls)
}

func TestDispatchReplyFailureDoesNotAffectNote(t *testing.T) {
	client := &mockTicketing{replyErrs: []error{
		&freshdesk.APIError{StatusCode: 403, Body: "forbidden"},
	}}
	decision := domain.ActionDecision{PublishPrivateNote: true, SendPublicReply: true, TargetTicketID: 7}

	report := testDispatcher(client).Dispatch(context.Background(), decision, sampleResult(), domain.Ticket{MasterID: 7})
	assert.True(t, report.NoteCreated)
	assert.False(t, report.ReplySent)
	assert.NotEmpty(t, report.ReplyError)
	assert.True(t, report.Partial())
}

func TestNoteBodyMarksEscalation(t *testing.T) {
	body := formatNote(sampleResult(), domain.ActionDecision{PublishPrivateNote: true, Escalate: true})
	assert.Contains(t, body, "Escalated")

	body = formatNote(sampleResult(), domain.ActionDecision{PublishPrivateNote: true, SendPublicReply: true})
	assert.Contains(t, body, "sent to the requester automatically")

	body = formatNote(sampleResult(), domain.ActionDecision{PublishPrivateNote: true})
	assert.Contains(t, body, "review before sending")
}
