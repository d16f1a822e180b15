// Package main provides the AgentDash API server implementation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentdash/agentdash/pkg/eventbus"
	"github.com/agentdash/agentdash/pkg/events"
	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
	"github.com/agentdash/agentdash/pkg/reaper"
	"github.com/agentdash/agentdash/pkg/services"
	"github.com/agentdash/agentdash/pkg/web"
)

// Per-route request quotas, matching how mutating routes get tighter limits
// than reads.
const (
	readRateLimit      = 100
	writeRateLimit     = 50
	duplicateRateLimit = 20
)

type API struct {
	logger          *slog.Logger
	persistence     persistence.Persistence
	eventBus        eventbus.EventBus
	tokens          web.StaticTokens
	redisURL        string
	executionMaxAge time.Duration
	validate        *validator.Validate
	tracer          trace.Tracer
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	tokens web.StaticTokens,
	redisURL string,
	executionMaxAge time.Duration,
) *API {
	return &API{
		logger:          logger,
		persistence:     persistence,
		eventBus:        eventBus,
		tokens:          tokens,
		redisURL:        redisURL,
		executionMaxAge: executionMaxAge,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
}

// services builds the service graph shared by the HTTP app and the
// background workers.
func (a *API) services() (*services.Flowchart, *services.Agent, *services.Execution, *services.Dashboard) {
	flowchartService := services.NewFlowchart(a.persistence, a.eventBus, a.logger, a.tracer)
	agentService := services.NewAgent(a.persistence, a.eventBus, a.logger)
	executionService := services.NewExecution(a.persistence, a.eventBus, agentService, a.logger)
	dashboardService := services.NewDashboard(a.persistence)

	return flowchartService, agentService, executionService, dashboardService
}

func (a *API) App() *fiber.App {
	flowchartService, agentService, executionService, dashboardService := a.services()

	handlers := web.NewAPIHandlers(flowchartService, agentService, executionService, dashboardService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("AgentDash API")
	})

	app.Get("/health", handlers.HealthCheck)

	app.Use(web.Authenticate(a.tokens))

	readLimit, writeLimit, duplicateLimit := a.rateLimits()

	viewer := web.RequireRole(models.RoleViewer)
	operator := web.RequireRole(models.RoleOperator)
	admin := web.RequireRole(models.RoleAdmin)

	agents := app.Group("/agents")
	agents.Get("/", handlers.GetAgents, viewer, readLimit)
	agents.Post("/", handlers.CreateAgent, operator, writeLimit)
	agents.Get("/:id", handlers.GetAgent, viewer, readLimit)
	agents.Patch("/:id", handlers.UpdateAgent, operator, writeLimit)
	agents.Delete("/:id", handlers.DeleteAgent, admin, writeLimit)

	// Flowchart endpoints, one document per agent:
	agents.Get("/:id/flowchart", handlers.GetFlowchart, viewer, readLimit)
	agents.Post("/:id/flowchart", handlers.CreateFlowchart, operator, writeLimit)
	agents.Put("/:id/flowchart", handlers.UpdateFlowchart, operator, writeLimit)
	agents.Delete("/:id/flowchart", handlers.DeleteFlowchart, admin, writeLimit)
	agents.Post("/:id/flowchart/validate", handlers.ValidateFlowchart, viewer, readLimit)
	agents.Post("/:id/flowchart/duplicate", handlers.DuplicateFlowchart, operator, duplicateLimit)
	agents.Get("/:id/flowchart/export", handlers.ExportFlowchart, viewer, readLimit)

	// Execution endpoints:
	agents.Post("/:id/executions", handlers.StartExecution, operator, writeLimit)

	executions := app.Group("/executions")
	executions.Get("/", handlers.GetExecutions, viewer, readLimit)
	executions.Get("/:id", handlers.GetExecution, viewer, readLimit)
	executions.Post("/:id/finish", handlers.FinishExecution, operator, writeLimit)
	executions.Post("/:id/logs", handlers.AppendExecutionLogs, operator, writeLimit)

	app.Get("/dashboard/stats", handlers.GetDashboardStats, viewer, readLimit)

	return app
}

// rateLimits builds the throttling middlewares. Without a Redis URL the
// limits are disabled.
func (a *API) rateLimits() (fiber.Handler, fiber.Handler, fiber.Handler) {
	if a.redisURL == "" {
		passthrough := func(c fiber.Ctx) error {
			return c.Next()
		}

		return passthrough, passthrough, passthrough
	}

	opts, err := redis.ParseURL(a.redisURL)
	if err != nil {
		panic(fmt.Errorf("invalid redis URL: %w", err))
	}

	client := redis.NewClient(opts)

	return web.RateLimit(client, readRateLimit, a.logger),
		web.RateLimit(client, writeRateLimit, a.logger),
		web.RateLimit(client, duplicateRateLimit, a.logger)
}

func (a *API) Start(ctx context.Context, port int) error {
	flowchartService, _, executionService, _ := a.services()

	// Cascade flowchart deletion off agent removal events.
	err := a.eventBus.Handle(events.AgentDeletedEvent, func(ctx context.Context, event any) error {
		deleted, ok := event.(*events.AgentDeleted)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		return flowchartService.CascadeAgentDeleted(ctx, deleted.AgentID)
	})
	if err != nil {
		return fmt.Errorf("failed to register event handler: %w", err)
	}

	err = a.eventBus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to event bus: %w", err)
	}

	executionReaper := reaper.New(executionService, a.logger, a.executionMaxAge, "")

	err = executionReaper.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start execution reaper: %w", err)
	}
	defer executionReaper.Stop()

	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
