// Package delay provides the delay node handler. Short delays are served
// inline while the session lease is held; long delays release the worker
// and come back through the timer queue.
package delay

import (
	"context"
	"fmt"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

const (
	// InlineCeiling is the longest delay served by sleeping inline.
	// Anything above it is scheduled so the worker is not held hostage.
	InlineCeiling = 10 * time.Second

	// EarlyFireBuffer tolerates timers that fire slightly before the
	// resume instant; smaller remainders advance instead of rescheduling.
	EarlyFireBuffer = 2 * time.Second
)

// DelayNode pauses the flow for a configured duration.
type DelayNode struct {
	id       string
	duration time.Duration

	// sleep waits inline, honoring cancellation. Replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDelayNode creates a delay node handler.
func NewDelayNode(id string, cfg map[string]any) (*DelayNode, error) {
	duration := nodeconfig.DurationOr(cfg, "duration", 0)
	if duration <= 0 {
		return nil, fmt.Errorf("%w 'duration'", nodeconfig.ErrMissing)
	}

	return &DelayNode{id: id, duration: duration, sleep: sleepCtx}, nil
}

func (n *DelayNode) ID() string            { return n.id }
func (n *DelayNode) Kind() models.NodeKind { return models.NodeKindDelay }

func (n *DelayNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	session := scope.Session
	now := scope.Now()

	if pending := session.Internal.PendingDelay; pending != nil && pending.NodeID == n.id {
		remaining := pending.ResumeAt.Sub(now)
		if remaining > EarlyFireBuffer {
			// Woken too early, go back to sleep until the real instant.
			if err := scope.Timers.ScheduleOrTighten(ctx, session.ID, pending.ResumeAt, models.TimerReasonDelay); err != nil {
				return models.Outcome{}, err
			}

			return models.Suspend(models.SuspendScheduledDelay), nil
		}

		session.Internal.PendingDelay = nil

		return models.Advance(""), nil
	}

	if n.duration <= InlineCeiling {
		if err := n.sleep(ctx, n.duration); err != nil {
			return models.Outcome{}, err
		}

		return models.Advance(""), nil
	}

	resumeAt := now.Add(n.duration)
	session.Internal.PendingDelay = &models.PendingDelay{NodeID: n.id, ResumeAt: resumeAt}

	if err := scope.Timers.ScheduleOrTighten(ctx, session.ID, resumeAt, models.TimerReasonDelay); err != nil {
		return models.Outcome{}, err
	}

	return models.Suspend(models.SuspendScheduledDelay), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
