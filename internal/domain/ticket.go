package domain

// Requester identifies the person who opened a ticket. Email may be empty
// when no extraction source yields a valid address.
type Requester struct {
	Email       string
	DisplayName string
}

// Ticket is the resolved canonical view of a support request. MasterID is the
// id all side effects must target; resolving a master id returns itself.
type Ticket struct {
	ID            int64
	MasterID      int64
	Subject       string
	Body          string
	Requester     Requester
	MergeParentID *int64
	// Degraded marks a ticket built from the raw event alone because the
	// ticketing system could not be reached.
	Degraded bool
}

// TicketEvent is a normalized inbound webhook event, immutable once received.
type TicketEvent struct {
	EventType      string
	RawTicketID    int64
	Subject        string
	Body           string
	RequesterEmail string
	RequesterName  string
	CustomFields   map[string]any
}
