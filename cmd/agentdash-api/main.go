package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/agentdash/agentdash/pkg/cmd"
	"github.com/agentdash/agentdash/pkg/log"
	"github.com/agentdash/agentdash/pkg/otelhelper"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "agentdash-api",
		Usage:                 "Serve the agent dashboard API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for distributed rate limiting (empty disables throttling)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "api-tokens",
				Usage:   "Provisioned API tokens (token:user-id:name:role, comma separated)",
				Sources: cli.EnvVars("API_TOKENS"),
			},
			&cli.DurationFlag{
				Name:    "execution-max-age",
				Usage:   "Age after which running executions are failed by the reaper",
				Value:   30 * time.Minute,
				Sources: cli.EnvVars("EXECUTION_MAX_AGE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing AgentDash API")

			tokens, err := cmd.ParseTokens(command.String("api-tokens"))
			if err != nil {
				return err
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				eventBus,
				tokens,
				command.String("redis-url"),
				command.Duration("execution-max-age"),
			)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "agentdash-api")
				if err != nil {
					logger.WarnContext(ctx, "Failed to initialize tracer, continuing without tracing", "error", err)
				} else {
					api.tracer = tracer
				}
			}

			return api.Start(ctx, command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
