package lease

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/persistence/file"
	"github.com/jornadaflow/jornada/pkg/testutil"
)

func TestPolicyStaleness(t *testing.T) {
	policy := NewPolicy(time.Minute)
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	assert.False(t, policy.IsStale(now.Add(-30*time.Second), now))
	assert.True(t, policy.IsStale(now.Add(-time.Minute), now))
	assert.True(t, policy.IsStale(now.Add(-2*time.Minute), now))
	assert.Equal(t, now.Add(-time.Minute), policy.StaleBefore(now))
}

func TestNewPolicyDefaultsDuration(t *testing.T) {
	assert.Equal(t, DefaultDuration, NewPolicy(0).Duration)
	assert.Equal(t, 5*time.Second, NewPolicy(5*time.Second).Duration)
}

func newStoreLease(t *testing.T) (*StoreLease, *file.Persistence, *time.Time) {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	clock := &now

	lease := NewStoreLease(persist.SessionRepository(), NewPolicy(time.Minute)).
		WithClock(func() time.Time { return *clock })

	return lease, persist, clock
}

func TestStoreLeaseAcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	lease, persist, _ := newStoreLease(t)

	session := testutil.CreateTestSession()
	require.NoError(t, persist.SessionRepository().SaveSession(ctx, session))

	granted, err := lease.Acquire(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, granted)

	// A second acquire while held is denied, not an error.
	granted, err = lease.Acquire(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, granted)

	require.NoError(t, lease.Release(ctx, session.ID))

	granted, err = lease.Acquire(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestStoreLeaseStaleTakeover(t *testing.T) {
	ctx := context.Background()
	lease, persist, clock := newStoreLease(t)

	session := testutil.CreateTestSession()
	require.NoError(t, persist.SessionRepository().SaveSession(ctx, session))

	granted, err := lease.Acquire(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, granted)

	// Within the lease duration the holder keeps it.
	*clock = clock.Add(30 * time.Second)

	granted, err = lease.Acquire(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, granted)

	// Past the duration the stale lease may be taken over.
	*clock = clock.Add(time.Minute)

	granted, err = lease.Acquire(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, granted)

	stored, err := persist.SessionRepository().SessionByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.Processing)
	require.NotNil(t, stored.ProcessingStartedAt)
	assert.Equal(t, *clock, *stored.ProcessingStartedAt)
}

func TestStoreLeaseUnknownSession(t *testing.T) {
	ctx := context.Background()
	lease, _, _ := newStoreLease(t)

	_, err := lease.Acquire(ctx, "ghost")
	assert.Error(t, err)
}
