// Package main provides the Jornada timer daemon. It drains due timers on a
// cron tick and turns each into an invocation request on the event bus; the
// workers do the actual running.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/jornadaflow/jornada/pkg/cmd"
	"github.com/jornadaflow/jornada/pkg/log"
)

func main() {
	cmdTimer := &cli.Command{
		Name:                  "jornada-timer",
		EnableShellCompletion: true,
		Usage:                 "Dispatch due session timers as invocation requests",
		Flags: []cli.Flag{
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
				Name:    "tick-interval",
				Usage:   "How often to scan for due timers",
				Value:   "5s",
				Sources: cli.EnvVars("TICK_INTERVAL"),
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

			logger := log.WithModule("jornada-timer")
			logger.InfoContext(ctx, "Initializing Jornada Timer")

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

			ticker := NewTicker(persistence.TimerRepository(), eventBus, logger)

			return ticker.Start(ctx, command.String("tick-interval"))
		},
	}

	if err := cmdTimer.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
