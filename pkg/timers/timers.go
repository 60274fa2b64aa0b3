// Package timers manages per-session wake-up scheduling. Each session's
// named timers (delay, timeout, follow-up, pause resume, payment
// no-response) collapse into a single persisted entry holding the next wake
// time; a later schedule request may only tighten it.
package timers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// Queue implements protocol.TimerQueue over a timer repository.
type Queue struct {
	repo   persistence.TimerRepository
	logger *slog.Logger
}

// NewQueue creates a timer queue.
func NewQueue(repo persistence.TimerRepository, logger *slog.Logger) *Queue {
	return &Queue{repo: repo, logger: logger}
}

// ScheduleOrTighten upserts the session's wake-up. The repository keeps the
// earlier run_at when an entry is already scheduled, so a new request can
// never push a closer deadline further out.
func (q *Queue) ScheduleOrTighten(ctx context.Context, sessionID string, runAt time.Time, reason models.TimerReason) error {
	q.logger.DebugContext(ctx, "Scheduling timer",
		"session_id", sessionID, "run_at", runAt, "reason", reason)

	return q.repo.Upsert(ctx, &models.TimerEntry{
		SessionID: sessionID,
		RunAt:     runAt,
		Reason:    reason,
	})
}

// Cancel drops the session's pending wake-up. A missing entry is not an
// error: cancellation races with dispatch.
func (q *Queue) Cancel(ctx context.Context, sessionID string) error {
	err := q.repo.Cancel(ctx, sessionID)
	if errors.Is(err, persistence.ErrTimerNotFound) {
		return nil
	}

	return err
}

// Invocation maps a fired timer onto the interpreter invocation its reason
// calls for.
func Invocation(entry *models.TimerEntry) models.Invocation {
	inv := models.Invocation{SessionID: entry.SessionID}

	switch entry.Reason {
	case models.TimerReasonDelay:
		inv.ResumeFromDelay = true
	case models.TimerReasonTimeout:
		inv.ResumeFromTimeout = true
	case models.TimerReasonFollowUp:
		inv.ResumeFromFollowUp = true
	case models.TimerReasonPauseResume:
		inv.ResumeFromPause = true
	case models.TimerReasonPaymentNoResponse:
		inv.ResumeFromNoResponse = true
	}

	return inv
}

// Dispatcher drains due timers and hands their invocations to a runner.
// cmd/jornada-timer drives it on a cron tick.
type Dispatcher struct {
	repo   persistence.TimerRepository
	run    func(context.Context, models.Invocation)
	logger *slog.Logger
	limit  int
}

// NewDispatcher creates a due-timer dispatcher.
func NewDispatcher(repo persistence.TimerRepository, run func(context.Context, models.Invocation), logger *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, run: run, logger: logger, limit: 100}
}

// Tick marks each due timer done and dispatches its invocation. Marking
// done before running keeps a crashed run from re-firing the same entry in
// a tight loop; the interpreter's own scheduling re-creates timers that are
// still needed.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) error {
	due, err := d.repo.Due(ctx, now, d.limit)
	if err != nil {
		return err
	}

	for _, entry := range due {
		if err := d.repo.MarkDone(ctx, entry.SessionID); err != nil {
			d.logger.ErrorContext(ctx, "Failed to retire due timer",
				"session_id", entry.SessionID, "error", err)

			continue
		}

		d.logger.InfoContext(ctx, "Dispatching due timer",
			"session_id", entry.SessionID, "reason", entry.Reason)

		d.run(ctx, Invocation(entry))
	}

	return nil
}
