package delay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/testutil"
)

func TestNewDelayNode_RequiresDuration(t *testing.T) {
	_, err := NewDelayNode("d1", map[string]any{})
	assert.Error(t, err)

	_, err = NewDelayNode("d1", map[string]any{"duration": 0})
	assert.Error(t, err)
}

func TestDelayNode_ShortDelaySleepsInline(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewDelayNode("d1", map[string]any{"duration": 3})
	require.NoError(t, err)

	var slept time.Duration

	node.sleep = func(_ context.Context, d time.Duration) error {
		slept = d

		return nil
	}

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, 3*time.Second, slept)
	assert.Nil(t, ts.Scope.Session.Internal.PendingDelay)

	_, scheduled := ts.Timers.Pending(ts.Scope.Session.ID)
	assert.False(t, scheduled)
}

func TestDelayNode_ShortDelayCancelled(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewDelayNode("d1", map[string]any{"duration": 3})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = node.Execute(ctx, ts.Scope)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelayNode_LongDelaySchedules(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewDelayNode("d1", map[string]any{"duration": 3600})
	require.NoError(t, err)

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuspend, outcome.Kind)
	assert.Equal(t, models.SuspendScheduledDelay, outcome.Suspend)

	pending := ts.Scope.Session.Internal.PendingDelay
	require.NotNil(t, pending)
	assert.Equal(t, "d1", pending.NodeID)
	assert.Equal(t, ts.Now.Add(time.Hour), pending.ResumeAt)

	timer, ok := ts.Timers.Pending(ts.Scope.Session.ID)
	require.True(t, ok)
	assert.Equal(t, models.TimerReasonDelay, timer.Reason)
	assert.Equal(t, ts.Now.Add(time.Hour), timer.RunAt)
}

func TestDelayNode_ResumeWithinBufferAdvances(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewDelayNode("d1", map[string]any{"duration": 3600})
	require.NoError(t, err)

	resumeAt := ts.Now.Add(time.Second)
	ts.Scope.Session.Internal.PendingDelay = &models.PendingDelay{NodeID: "d1", ResumeAt: resumeAt}

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAdvance, outcome.Kind)
	assert.Nil(t, ts.Scope.Session.Internal.PendingDelay)
}

func TestDelayNode_WokenTooEarlyReschedules(t *testing.T) {
	ts := testutil.CreateTestScope()

	node, err := NewDelayNode("d1", map[string]any{"duration": 3600})
	require.NoError(t, err)

	resumeAt := ts.Now.Add(30 * time.Minute)
	ts.Scope.Session.Internal.PendingDelay = &models.PendingDelay{NodeID: "d1", ResumeAt: resumeAt}

	outcome, err := node.Execute(context.Background(), ts.Scope)
	require.NoError(t, err)
	assert.Equal(t, models.SuspendScheduledDelay, outcome.Suspend)
	require.NotNil(t, ts.Scope.Session.Internal.PendingDelay)

	timer, ok := ts.Timers.Pending(ts.Scope.Session.ID)
	require.True(t, ok)
	assert.Equal(t, resumeAt, timer.RunAt)
}
