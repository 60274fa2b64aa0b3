package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"

	"github.com/jornadaflow/jornada/pkg/ai"
	"github.com/jornadaflow/jornada/pkg/cmd"
	"github.com/jornadaflow/jornada/pkg/engine"
	"github.com/jornadaflow/jornada/pkg/eventbus"
	"github.com/jornadaflow/jornada/pkg/gateway"
	"github.com/jornadaflow/jornada/pkg/lease"
	"github.com/jornadaflow/jornada/pkg/log"
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/otelhelper"
	"github.com/jornadaflow/jornada/pkg/protocol"
	"github.com/jornadaflow/jornada/pkg/timers"
)

func main() {
	cmdWorker := &cli.Command{
		Name:                  "jornada-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to run conversational sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
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
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "gateway-url",
				Usage:    "Base URL of the message gateway",
				Required: true,
				Sources:  cli.EnvVars("GATEWAY_URL"),
			},
			&cli.StringFlag{
				Name:    "gateway-api-key",
				Usage:   "API key for the message gateway",
				Sources: cli.EnvVars("GATEWAY_API_KEY"),
			},
			&cli.StringFlag{
				Name:     "ai-url",
				Usage:    "Base URL of the AI service",
				Required: true,
				Sources:  cli.EnvVars("AI_URL"),
			},
			&cli.StringFlag{
				Name:    "ai-api-key",
				Usage:   "API key for the AI service",
				Sources: cli.EnvVars("AI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "pause-start",
				Usage:   "Daily pause window start (HH:MM), empty disables the window",
				Sources: cli.EnvVars("PAUSE_START"),
			},
			&cli.StringFlag{
				Name:    "pause-end",
				Usage:   "Daily pause window end (HH:MM)",
				Sources: cli.EnvVars("PAUSE_END"),
			},
			&cli.StringFlag{
				Name:    "pause-timezone",
				Usage:   "IANA timezone of the pause window",
				Value:   "America/Sao_Paulo",
				Sources: cli.EnvVars("PAUSE_TIMEZONE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the session lease (falls back to the database lease when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringSliceFlag{
				Name:    "disconnect-phrase",
				Usage:   "Gateway error substring that flags the channel as disconnected (repeatable)",
				Sources: cli.EnvVars("DISCONNECT_PHRASES"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("jornada-worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Jornada Worker")

			registry := cmd.NewRegistry(logger)

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			gatewayClient := gateway.NewClient(gateway.Config{
				BaseURL: command.String("gateway-url"),
				APIKey:  command.String("gateway-api-key"),
			}, logger)

			aiClient := ai.NewClient(ai.Config{
				BaseURL: command.String("ai-url"),
				APIKey:  command.String("ai-api-key"),
			}, logger)

			var sessionLease protocol.Lease = lease.NewStoreLease(
				persistence.SessionRepository(),
				lease.NewPolicy(lease.DefaultDuration),
			)

			if redisURL := command.String("redis-url"); redisURL != "" {
				opts, err := redis.ParseURL(redisURL)
				if err != nil {
					return err
				}

				sessionLease = lease.NewRedisLease(
					redis.NewClient(opts),
					lease.NewPolicy(lease.DefaultDuration),
					workerID,
				)
			}

			timerQueue := timers.NewQueue(persistence.TimerRepository(), logger)
			sink := eventbus.NewSink(eventBus, logger)

			eng := engine.New(
				persistence,
				registry,
				sessionLease,
				timerQueue,
				gatewayClient,
				aiClient,
				sink,
				logger,
				engine.Config{
					Pause:             pauseWindow(command),
					DisconnectPhrases: command.StringSlice("disconnect-phrase"),
				},
			)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "jornada-worker")
				if err != nil {
					return err
				}

				eng = eng.WithTracer(tracer)
			}

			worker := NewWorker(workerID, eng, eventBus, logger)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)

				return err
			}

			return nil
		},
	}

	if err := cmdWorker.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

// pauseWindow builds the quiet window from flags, or nil when unset.
func pauseWindow(command *cli.Command) *models.PauseWindow {
	start := command.String("pause-start")
	end := command.String("pause-end")

	if start == "" || end == "" {
		return nil
	}

	return &models.PauseWindow{
		Start:    start,
		End:      end,
		Timezone: command.String("pause-timezone"),
	}
}
