package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/knowledge"
	"github.com/spec-kit/ticket-autopilot/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	cfg         *config.Config
	redis       *persistence.Redis
	store       *knowledge.Store
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(cfg *config.Config, redis *persistence.Redis, store *knowledge.Store) *HealthHandler {
	return &HealthHandler{
		serviceName: cfg.App.Name,
		version:     cfg.App.Version,
		cfg:         cfg,
		redis:       redis,
		store:       store,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness. Redis is optional (only deduplication
// depends on it) and missing credentials are reported but do not make the
// service unready: the endpoint must stay reachable per the degradation
// policy.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	if err := h.redis.Ping(ctx); err != nil {
		depStatus["redis"] = "degraded: " + err.Error()
	} else {
		depStatus["redis"] = "ok"
	}
	depStatus["knowledge_records"] = h.store.Count()

	if missing := h.cfg.MissingCredentials(); len(missing) > 0 {
		depStatus["missing_credentials"] = missing
	}

	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": depStatus,
	})
}
