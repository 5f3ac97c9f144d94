package domain

// ActionDecision is the gate's verdict for one classified ticket. Derived
// deterministically from the classification and policy, no hidden state.
type ActionDecision struct {
	PublishPrivateNote bool  `json:"publish_private_note"`
	SendPublicReply    bool  `json:"send_public_reply"`
	Escalate           bool  `json:"escalate"`
	TargetTicketID     int64 `json:"target_ticket_id"`
}

// DispatchReport records the individual outcome of each side effect. Partial
// failure is reported here rather than aborting the pipeline.
type DispatchReport struct {
	NoteCreated   bool   `json:"note_created"`
	ReplySent     bool   `json:"reply_sent"`
	Escalated     bool   `json:"escalated"`
	NoteError     string `json:"note_error,omitempty"`
	ReplyError    string `json:"reply_error,omitempty"`
	EscalateError string `json:"escalate_error,omitempty"`
}

// Partial reports whether at least one attempted action failed.
func (r DispatchReport) Partial() bool {
	return r.NoteError != "" || r.ReplyError != "" || r.EscalateError != ""
}
