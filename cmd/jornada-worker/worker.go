package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jornadaflow/jornada/pkg/engine"
	"github.com/jornadaflow/jornada/pkg/eventbus"
	"github.com/jornadaflow/jornada/pkg/events"
)

// Worker consumes invocation requests and runs the interpreter for each.
// Kafka keys messages by session id, so every invocation for one session
// lands on the same partition and runs in order.
type Worker struct {
	id       string
	logger   *slog.Logger
	engine   *engine.Engine
	eventBus eventbus.EventBus
}

func NewWorker(id string, eng *engine.Engine, eventBus eventbus.EventBus, logger *slog.Logger) *Worker {
	return &Worker{
		id:       id,
		logger:   logger.With("worker_id", id),
		engine:   eng,
		eventBus: eventBus,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	if err := w.eventBus.Handle(events.InvocationRequestedEvent, w.handleInvocationRequested); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		w.logger.InfoContext(ctx, "Shutting down worker...")
	case <-ctx.Done():
	}

	return nil
}

func (w *Worker) handleInvocationRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.InvocationRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for InvocationRequested")

		return nil
	}

	logger := w.logger.With("session_id", requested.Invocation.SessionID, "event_id", requested.ID)
	logger.InfoContext(ctx, "Processing invocation")

	result, err := w.engine.Run(ctx, requested.Invocation)
	if err != nil {
		logger.ErrorContext(ctx, "Invocation failed", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Invocation finished",
		"success", result.Success,
		"skipped", result.Skipped,
		"completed", result.Completed,
		"current_node", result.CurrentNode,
		"reason", result.Reason,
	)

	return nil
}
