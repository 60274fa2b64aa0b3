package protocol

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
)

// Lease is the per-session execution exclusivity mechanism. Acquire is a
// single atomic conditional claim with stale takeover; a denied acquire
// means the session is genuinely busy elsewhere and the caller must return
// a "skipped" result, never block or retry synchronously.
type Lease interface {
	// Acquire claims the session for processing. It succeeds if the
	// session is idle, or if the current holder's lease is stale.
	Acquire(ctx context.Context, sessionID string) (bool, error)

	// Renew extends a held lease.
	Renew(ctx context.Context, sessionID string) error

	// Release unconditionally frees the session. It is called on every
	// exit path, including error paths.
	Release(ctx context.Context, sessionID string) error

	// IsStale reports whether a lease stamped at the given instant may be
	// taken over at now.
	IsStale(startedAt time.Time, now time.Time) bool
}

// TimerQueue schedules future interpreter invocations. A session holds at
// most one outstanding entry.
type TimerQueue interface {
	// ScheduleOrTighten upserts the session's wake-up. It only ever moves
	// an existing schedule earlier, never later.
	ScheduleOrTighten(ctx context.Context, sessionID string, runAt time.Time, reason models.TimerReason) error

	// Cancel drops the session's pending wake-up, if any.
	Cancel(ctx context.Context, sessionID string) error
}
