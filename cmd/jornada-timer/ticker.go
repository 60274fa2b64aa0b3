package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jornadaflow/jornada/pkg/eventbus"
	"github.com/jornadaflow/jornada/pkg/events"
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
	"github.com/jornadaflow/jornada/pkg/timers"
)

// Ticker runs the timer dispatcher on a cron schedule. Each due timer
// becomes an invocation request keyed by session id, so wake-ups for one
// session line up behind its other invocations on the bus.
type Ticker struct {
	dispatcher *timers.Dispatcher
	eventBus   eventbus.EventBus
	logger     *slog.Logger
}

func NewTicker(repo persistence.TimerRepository, eventBus eventbus.EventBus, logger *slog.Logger) *Ticker {
	t := &Ticker{eventBus: eventBus, logger: logger}
	t.dispatcher = timers.NewDispatcher(repo, t.requestInvocation, logger)

	return t
}

func (t *Ticker) Start(ctx context.Context, interval string) error {
	scheduler := cron.New()

	_, err := scheduler.AddFunc("@every "+interval, func() {
		if tickErr := t.dispatcher.Tick(ctx, time.Now().UTC()); tickErr != nil {
			t.logger.ErrorContext(ctx, "Timer tick failed", "error", tickErr)
		}
	})
	if err != nil {
		return err
	}

	scheduler.Start()
	t.logger.InfoContext(ctx, "Timer dispatcher started", "interval", interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		t.logger.InfoContext(ctx, "Shutting down timer...")
	case <-ctx.Done():
	}

	<-scheduler.Stop().Done()

	return nil
}

func (t *Ticker) requestInvocation(ctx context.Context, inv models.Invocation) {
	event := events.InvocationRequested{
		BaseEvent:  events.NewBaseEvent(events.InvocationRequestedEvent, inv.SessionID),
		Invocation: inv,
	}

	if err := t.eventBus.Publish(ctx, inv.SessionID, event); err != nil {
		t.logger.ErrorContext(ctx, "Failed to publish invocation request",
			"session_id", inv.SessionID, "error", err)
	}
}
