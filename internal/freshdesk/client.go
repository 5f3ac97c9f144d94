package freshdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/config"
)

// Freshdesk ticket priorities.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
	PriorityUrgent = 4
)

// APIError is a non-2xx response from the Freshdesk API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("freshdesk API status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether an outbound call failed in a way worth
// retrying: transport errors, timeouts, and 5xx responses. 4xx responses are
// permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// Person is an embedded requester or contact object on a ticket record.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TicketRecord is the raw ticket shape returned by the Freshdesk API. Email
// can surface through several different paths depending on account setup, so
// every candidate field is kept.
type TicketRecord struct {
	ID              int64          `json:"id"`
	Subject         string         `json:"subject"`
	Description     string         `json:"description"`
	DescriptionText string         `json:"description_text"`
	MergedTicketID  *int64         `json:"merged_ticket_id"`
	Requester       *Person        `json:"requester"`
	Contact         *Person        `json:"contact"`
	RequesterEmail  string         `json:"requester_email"`
	Email           string         `json:"email"`
	FromEmail       string         `json:"from_email"`
	SenderEmail     string         `json:"sender_email"`
	Name            string         `json:"name"`
	CustomFields    map[string]any `json:"custom_fields"`
}

// Body returns the best available plain-text ticket body.
func (t *TicketRecord) Body() string {
	if t.DescriptionText != "" {
		return t.DescriptionText
	}
	return t.Description
}

// NoteInput is the payload for creating a ticket note.
type NoteInput struct {
	Body    string `json:"body"`
	Private bool   `json:"private"`
}

// ReplyInput is the payload for a public reply.
type ReplyInput struct {
	Body string `json:"body"`
}

// TicketUpdate carries the mutable fields the pipeline touches.
type TicketUpdate struct {
	Priority    *int   `json:"priority,omitempty"`
	ResponderID *int64 `json:"responder_id,omitempty"`
}

// Client talks to the Freshdesk v2 API. Authentication is basic auth with the
// API key as username and "X" as password.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient builds a Freshdesk client from configuration.
func NewClient(cfg config.FreshdeskConfig, logger *zap.Logger) *Client {
	domain := strings.TrimSuffix(strings.TrimSpace(cfg.Domain), "/")
	return &Client{
		baseURL: fmt.Sprintf("https://%s/api/v2", domain),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 20 * time.Second},
		logger:  logger,
	}
}

// GetTicket fetches one ticket by id.
func (c *Client) GetTicket(ctx context.Context, ticketID int64) (*TicketRecord, error) {
	var record TicketRecord
	url := fmt.Sprintf("%s/tickets/%d", c.baseURL, ticketID)
	if err := c.do(ctx, http.MethodGet, url, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateNote posts a note to a ticket. Private notes are only visible to agents.
func (c *Client) CreateNote(ctx context.Context, ticketID int64, body string, private bool) error {
	url := fmt.Sprintf("%s/tickets/%d/notes", c.baseURL, ticketID)
	return c.do(ctx, http.MethodPost, url, NoteInput{Body: body, Private: private}, nil)
}

// CreateReply posts a public reply visible to the requester.
func (c *Client) CreateReply(ctx context.Context, ticketID int64, body string) error {
	url := fmt.Sprintf("%s/tickets/%d/reply", c.baseURL, ticketID)
	return c.do(ctx, http.MethodPost, url, ReplyInput{Body: body}, nil)
}

// UpdateTicket changes priority and/or assignee.
func (c *Client) UpdateTicket(ctx context.Context, ticketID int64, update TicketUpdate) error {
	url := fmt.Sprintf("%s/tickets/%d", c.baseURL, ticketID)
	return c.do(ctx, http.MethodPut, url, update, nil)
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "X")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
