// Package lease implements the per-session processing lease: the single
// concurrency-correctness mechanism of the interpreter.
package lease

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/persistence"
)

// DefaultDuration is how long a lease may be held before another invocation
// is allowed to take it over.
const DefaultDuration = 60 * time.Second

// Policy decides when a held lease is stale. It is separated from storage
// so the takeover rule is testable in isolation.
type Policy struct {
	Duration time.Duration
}

// NewPolicy builds a policy, defaulting the duration when zero.
func NewPolicy(duration time.Duration) Policy {
	if duration <= 0 {
		duration = DefaultDuration
	}

	return Policy{Duration: duration}
}

// IsStale reports whether a lease stamped at startedAt may be taken over at
// now.
func (p Policy) IsStale(startedAt time.Time, now time.Time) bool {
	return now.Sub(startedAt) >= p.Duration
}

// StaleBefore returns the cutoff instant: leases stamped before it are
// stale at now.
func (p Policy) StaleBefore(now time.Time) time.Time {
	return now.Add(-p.Duration)
}

// StoreLease implements the lease on the session repository's atomic
// conditional claim.
type StoreLease struct {
	sessions persistence.SessionRepository
	policy   Policy
	now      func() time.Time
}

// NewStoreLease creates a repository-backed lease.
func NewStoreLease(sessions persistence.SessionRepository, policy Policy) *StoreLease {
	return &StoreLease{
		sessions: sessions,
		policy:   policy,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the lease clock, for tests.
func (l *StoreLease) WithClock(now func() time.Time) *StoreLease {
	l.now = now
	return l
}

// Acquire claims the session. Denied means genuinely busy elsewhere: the
// caller reports "skipped" and must not block or retry synchronously.
func (l *StoreLease) Acquire(ctx context.Context, sessionID string) (bool, error) {
	now := l.now()

	return l.sessions.Claim(ctx, sessionID, now, l.policy.StaleBefore(now))
}

// Renew re-stamps a held lease.
func (l *StoreLease) Renew(ctx context.Context, sessionID string) error {
	// Re-claiming while held refreshes the stamp only if we still hold a
	// fresh lease or it went stale under us; either way the stamp moves
	// forward.
	now := l.now()

	_, err := l.sessions.Claim(ctx, sessionID, now, now)

	return err
}

// Release unconditionally frees the session. Called on every exit path.
func (l *StoreLease) Release(ctx context.Context, sessionID string) error {
	return l.sessions.Release(ctx, sessionID)
}

// IsStale exposes the policy for callers inspecting lease stamps.
func (l *StoreLease) IsStale(startedAt time.Time, now time.Time) bool {
	return l.policy.IsStale(startedAt, now)
}
