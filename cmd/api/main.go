package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-autopilot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-autopilot/internal/classify"
	"github.com/spec-kit/ticket-autopilot/internal/config"
	"github.com/spec-kit/ticket-autopilot/internal/dispatch"
	"github.com/spec-kit/ticket-autopilot/internal/events"
	"github.com/spec-kit/ticket-autopilot/internal/freshdesk"
	"github.com/spec-kit/ticket-autopilot/internal/knowledge"
	"github.com/spec-kit/ticket-autopilot/internal/observability"
	"github.com/spec-kit/ticket-autopilot/internal/persistence"
	"github.com/spec-kit/ticket-autopilot/internal/pipeline"
	"github.com/spec-kit/ticket-autopilot/internal/policy"
	"github.com/spec-kit/ticket-autopilot/internal/resolve"
	"github.com/spec-kit/ticket-autopilot/internal/service"
	"github.com/spec-kit/ticket-autopilot/internal/worker"

	httptransport "github.com/spec-kit/ticket-autopilot/internal/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("required credentials missing, automation will degrade",
			zap.String("vars", strings.Join(missing, ", ")))
	}

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	guard := persistence.NewIdempotencyGuard(redis, cfg.Idempotency.TTL(), logger)

	store := knowledge.NewStore(cfg.Knowledge, logger)

	ticketing := freshdesk.NewClient(cfg.Freshdesk, logger)
	resolver := resolve.NewResolver(ticketing, logger)

	modelClient := classify.NewOpenAIClient(cfg.OpenAI)
	classifier := classify.NewClassifier(modelClient, cfg.OpenAI, logger)

	dispatcher := dispatch.NewDispatcher(ticketing, cfg.Policy, logger)

	eventBus := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(eventBus, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	pipe := pipeline.New(pipeline.Dependencies{
		Resolver:   resolver,
		Knowledge:  store,
		Classifier: classifier,
		Policy:     policy.FromConfig(cfg.Policy),
		Dispatcher: dispatcher,
		Guard:      guard,
		Events:     eventBus,
		Metrics:    metrics,
		Logger:     logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg, redis, store)
	webhookHandler := handlers.NewWebhookHandler(pipe, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Webhook: webhookHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
