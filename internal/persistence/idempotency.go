package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/domain"
)

// IdempotencyGuard suppresses duplicate deliveries of the same webhook event
// within a short window. Source systems retry webhooks; without the guard a
// retried delivery would post a second note or reply. The guard fails open:
// when Redis is unavailable the event is processed normally, duplicates being
// an acceptable degraded outcome.
type IdempotencyGuard struct {
	redis  *Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdempotencyGuard constructs a guard over the shared Redis wrapper.
func NewIdempotencyGuard(redis *Redis, ttl time.Duration, logger *zap.Logger) *IdempotencyGuard {
	return &IdempotencyGuard{redis: redis, ttl: ttl, logger: logger}
}

// Begin claims the event's idempotency key. It returns true when this
// delivery is the first within the window and processing should proceed.
func (g *IdempotencyGuard) Begin(ctx context.Context, event domain.TicketEvent) bool {
	if g == nil || g.redis == nil || g.redis.Client == nil {
		return true
	}

	key := EventKey(event)
	claimed, err := g.redis.Client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		g.logger.Warn("idempotency check failed, processing anyway",
			zap.Int64("ticket_id", event.RawTicketID), zap.Error(err))
		return true
	}
	if !claimed {
		g.logger.Info("duplicate webhook delivery suppressed",
			zap.Int64("ticket_id", event.RawTicketID), zap.String("key", key))
	}
	return claimed
}

// EventKey derives the idempotency key: ticket id plus a hash of the event
// content, so distinct updates to the same ticket are not conflated.
func EventKey(event domain.TicketEvent) string {
	sum := sha256.Sum256([]byte(event.EventType + "\x00" + event.Subject + "\x00" + event.Body))
	return fmt.Sprintf("autopilot:event:%d:%s", event.RawTicketID, hex.EncodeToString(sum[:8]))
}
