package resolve

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/freshdesk"
	"github.com/spec-kit/ticket-autopilot/pkg/util/retryutil"
)

// maxMergeDepth bounds the merge-chain walk against cyclic or malformed merge
// graphs. Exceeding it keeps the last ticket seen rather than failing.
const maxMergeDepth = 10

// TicketFetcher reads ticket records from the ticketing system.
type TicketFetcher interface {
	GetTicket(ctx context.Context, ticketID int64) (*freshdesk.TicketRecord, error)
}

// Resolver determines the canonical (master) ticket and requester for a raw
// ticket id.
type Resolver struct {
	fetcher  TicketFetcher
	logger   *zap.Logger
	retryCfg retryutil.Config
}

// NewResolver constructs a resolver.
func NewResolver(fetcher TicketFetcher, logger *zap.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger,
		retryCfg: retryutil.Config{
			MaxAttempts: 2,
			BaseDelay:   300 * time.Millisecond,
			Multiplier:  2.0,
		},
	}
}

// Resolve walks merge pointers from rawID to the master ticket. Resolution is
// idempotent: resolving a master id returns that id as its own master. When
// the ticketing system cannot be reached at all, the resolver degrades to a
// ticket whose master is the raw id itself so the pipeline can still proceed.
func (r *Resolver) Resolve(ctx context.Context, rawID int64) domain.Ticket {
	var (
		record  *freshdesk.TicketRecord
		current = rawID
		visited = map[int64]bool{}
	)

	for depth := 0; ; depth++ {
		if depth >= maxMergeDepth {
			r.logger.Warn("merge chain depth exceeded, keeping last ticket seen",
				zap.Int64("raw_id", rawID), zap.Int64("last_id", record.ID))
			break
		}
		if visited[current] {
			r.logger.Warn("merge chain cycle detected",
				zap.Int64("raw_id", rawID), zap.Int64("repeated_id", current))
			break
		}
		visited[current] = true

		fetched, err := r.fetch(ctx, current)
		if err != nil {
			if record == nil {
				r.logger.Warn("ticketing system unreachable, degrading to raw id",
					zap.Int64("raw_id", rawID), zap.Error(err))
				return domain.Ticket{ID: rawID, MasterID: rawID, Degraded: true}
			}
			r.logger.Warn("merge parent fetch failed, keeping last ticket seen",
				zap.Int64("parent_id", current), zap.Error(err))
			break
		}
		record = fetched

		parent := mergeParent(record)
		if parent == nil || *parent == record.ID {
			break
		}
		current = *parent
	}

	ticket := domain.Ticket{
		ID:            rawID,
		MasterID:      record.ID,
		Subject:       record.Subject,
		Body:          record.Body(),
		Requester:     extractRequester(record),
		MergeParentID: mergeParent(record),
	}
	return ticket
}

func (r *Resolver) fetch(ctx context.Context, id int64) (*freshdesk.TicketRecord, error) {
	var record *freshdesk.TicketRecord
	err := retryutil.Do(ctx, r.retryCfg, freshdesk.IsTransient, func() error {
		var opErr error
		record, opErr = r.fetcher.GetTicket(ctx, id)
		return opErr
	})
	return record, err
}

// mergeParent returns the id this ticket was merged into, from the explicit
// merge field or a parent-ticket custom field.
func mergeParent(record *freshdesk.TicketRecord) *int64 {
	if record == nil {
		return nil
	}
	if record.MergedTicketID != nil && *record.MergedTicketID > 0 {
		return record.MergedTicketID
	}
	for key, value := range record.CustomFields {
		normalized := strings.ToLower(key)
		if !strings.Contains(normalized, "parent_ticket") && !strings.Contains(normalized, "merged_into") {
			continue
		}
		if id, ok := numericValue(value); ok && id > 0 {
			return &id
		}
	}
	return nil
}

func numericValue(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

// extractRequester tries each extraction strategy in priority order; the
// first syntactically valid email wins. No source yielding a value is a valid
// outcome, not an error.
func extractRequester(record *freshdesk.TicketRecord) domain.Requester {
	if record == nil {
		return domain.Requester{}
	}
	for _, strategy := range requesterStrategies {
		if req, ok := strategy(record); ok {
			return req
		}
	}
	return domain.Requester{DisplayName: strings.TrimSpace(record.Name)}
}

type requesterStrategy func(*freshdesk.TicketRecord) (domain.Requester, bool)

var requesterStrategies = []requesterStrategy{
	fromRequesterObject,
	fromContactObject,
	fromFlatFields,
	fromCustomFields,
}

func fromRequesterObject(record *freshdesk.TicketRecord) (domain.Requester, bool) {
	if record.Requester == nil {
		return domain.Requester{}, false
	}
	return buildRequester(record.Requester.Email, record.Requester.Name)
}

func fromContactObject(record *freshdesk.TicketRecord) (domain.Requester, bool) {
	if record.Contact == nil {
		return domain.Requester{}, false
	}
	return buildRequester(record.Contact.Email, record.Contact.Name)
}

func fromFlatFields(record *freshdesk.TicketRecord) (domain.Requester, bool) {
	for _, candidate := range []string{record.RequesterEmail, record.Email, record.FromEmail, record.SenderEmail} {
		if req, ok := buildRequester(candidate, record.Name); ok {
			return req, true
		}
	}
	return domain.Requester{}, false
}

func fromCustomFields(record *freshdesk.TicketRecord) (domain.Requester, bool) {
	for key, value := range record.CustomFields {
		if !strings.Contains(strings.ToLower(key), "email") {
			continue
		}
		if raw, ok := value.(string); ok {
			if req, built := buildRequester(raw, record.Name); built {
				return req, true
			}
		}
	}
	return domain.Requester{}, false
}

func buildRequester(email, name string) (domain.Requester, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Requester{}, false
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Requester{}, false
	}
	return domain.Requester{Email: email, DisplayName: strings.TrimSpace(name)}, true
}
