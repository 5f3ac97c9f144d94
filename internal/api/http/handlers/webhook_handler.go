package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/api/dto"
	"github.com/spec-kit/ticket-autopilot/internal/domain"
	"github.com/spec-kit/ticket-autopilot/internal/pipeline"
	apperrors "github.com/spec-kit/ticket-autopilot/pkg/util"
)

// PipelineRunner is the pipeline surface the handler needs.
type PipelineRunner interface {
	HandleEvent(ctx context.Context, event domain.TicketEvent) (*pipeline.Result, error)
}

// WebhookHandler accepts ticketing-system webhook deliveries.
type WebhookHandler struct {
	pipeline PipelineRunner
	logger   *zap.Logger
}

// NewWebhookHandler returns a new handler instance.
func NewWebhookHandler(pipeline PipelineRunner, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{pipeline: pipeline, logger: logger}
}

// Receive handles POST /webhooks/freshdesk. The pipeline runs on a context
// detached from the connection: side effects against the ticketing system are
// not safely cancellable, so a dropped caller must not abort them.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var payload dto.WebhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return apperrors.NewMalformedInput("unparseable webhook payload", map[string]any{"cause": err.Error()})
	}

	event := payload.Normalize()
	h.logger.Info("webhook received",
		zap.Int64("ticket_id", event.RawTicketID),
		zap.String("event_type", event.EventType))

	result, err := h.pipeline.HandleEvent(context.WithoutCancel(c.UserContext()), event)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
