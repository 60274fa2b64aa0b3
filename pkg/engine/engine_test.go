package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jornadaflow/jornada/pkg/lease"
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
	"github.com/jornadaflow/jornada/pkg/persistence/file"
	"github.com/jornadaflow/jornada/pkg/registry"
	"github.com/jornadaflow/jornada/pkg/testutil"
	"github.com/jornadaflow/jornada/pkg/timers"
)

type harness struct {
	engine  *Engine
	persist *file.Persistence
	gateway *testutil.FakeGateway
	judge   *testutil.FakeJudge
	events  *testutil.FakeEventSink
	now     time.Time
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.DiscardHandler)
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	reg := registry.NewRegistry(logger)
	reg.RegisterBuiltins()

	h := &harness{
		persist: persist,
		gateway: testutil.OKGateway(),
		judge:   &testutil.FakeJudge{},
		events:  &testutil.FakeEventSink{},
		now:     now,
	}

	sessionLease := lease.NewStoreLease(persist.SessionRepository(), lease.NewPolicy(0)).
		WithClock(func() time.Time { return h.now })

	h.engine = New(
		persist,
		reg,
		sessionLease,
		timers.NewQueue(persist.TimerRepository(), logger),
		h.gateway,
		h.judge,
		h.events,
		logger,
		cfg,
	).WithClock(func() time.Time { return h.now })

	return h
}

func (h *harness) seed(t *testing.T, flow *models.Flow, session *models.Session, contact *models.Contact) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, h.persist.FlowRepository().SaveFlow(ctx, flow))
	require.NoError(t, h.persist.SessionRepository().SaveSession(ctx, session))
	require.NoError(t, h.persist.ContactRepository().SaveContact(ctx, contact))
}

func (h *harness) session(t *testing.T, id string) *models.Session {
	t.Helper()

	session, err := h.persist.SessionRepository().SessionByID(context.Background(), id)
	require.NoError(t, err)

	return session
}

func (h *harness) pendingTimer(t *testing.T, sessionID string) *models.TimerEntry {
	t.Helper()

	entry, err := h.persist.TimerRepository().TimerBySession(context.Background(), sessionID)
	if errors.Is(err, persistence.ErrTimerNotFound) {
		return nil
	}

	require.NoError(t, err)

	if entry.Status != models.TimerStatusScheduled {
		return nil
	}

	return entry
}

// greetingFlow is the canonical shape: greet, wait for a reply for five
// minutes, thank on reply, nudge on timeout.
func greetingFlow() *models.Flow {
	return testutil.CreateTestFlow(
		testutil.WithNodes(
			&models.Node{ID: "start", Kind: models.NodeKindStart},
			&models.Node{ID: "greet", Kind: models.NodeKindText,
				Config: map[string]any{"content": "Oi {{name}}, tudo bem?"}},
			&models.Node{ID: "wait", Kind: models.NodeKindWaitInput,
				Config: map[string]any{"variable": "reply", "timeout": "5m"}},
			&models.Node{ID: "thanks", Kind: models.NodeKindText,
				Config: map[string]any{"content": "Obrigado!"}},
			&models.Node{ID: "nudge", Kind: models.NodeKindText,
				Config: map[string]any{"content": "Ainda está aí?"}},
			&models.Node{ID: "end", Kind: models.NodeKindEnd},
		),
		testutil.WithEdges(
			&models.Edge{ID: "e1", Source: "start", Target: "greet"},
			&models.Edge{ID: "e2", Source: "greet", Target: "wait"},
			&models.Edge{ID: "e3", Source: "wait", Target: "thanks", Label: models.EdgeLabelResponse},
			&models.Edge{ID: "e4", Source: "wait", Target: "nudge", Label: models.EdgeLabelTimeout},
			&models.Edge{ID: "e5", Source: "thanks", Target: "end"},
			&models.Edge{ID: "e6", Source: "nudge", Target: "end"},
		),
	)
}

func seedGreeting(t *testing.T, h *harness) (*models.Flow, *models.Session) {
	t.Helper()

	flow := greetingFlow()
	contact := testutil.CreateTestContact()
	contact.ID = "contact-1"
	session := testutil.CreateTestSession(
		testutil.WithVariables(map[string]any{"name": "Maria"}),
	)
	session.FlowID = flow.ID
	session.ContactID = contact.ID
	h.seed(t, flow, session, contact)

	return flow, session
}

func TestRunGreetsAndWaits(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)

	result, err := h.engine.Run(context.Background(), models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.WaitingForInput)
	assert.Equal(t, "wait", result.CurrentNode)

	require.Len(t, h.gateway.Sent, 1)
	assert.Equal(t, "Oi Maria, tudo bem?", h.gateway.Sent[0].Content)

	stored := h.session(t, session.ID)
	assert.Equal(t, "wait", stored.CurrentNodeID)
	assert.True(t, stored.HasSent("greet"))
	assert.False(t, stored.Processing)

	entry := h.pendingTimer(t, session.ID)
	require.NotNil(t, entry)
	assert.Equal(t, models.TimerReasonTimeout, entry.Reason)
	assert.Equal(t, h.now.Add(5*time.Minute), entry.RunAt.UTC())
}

func TestRunReplyResolvesWait(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	h.now = h.now.Add(time.Minute)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, UserInput: "tudo sim"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Completed)

	stored := h.session(t, session.ID)
	assert.Equal(t, models.SessionStatusCompleted, stored.Status)
	assert.Equal(t, "tudo sim", stored.Variables["reply"])
	assert.Nil(t, stored.Internal.Wait["wait"])
	assert.Nil(t, h.pendingTimer(t, session.ID))

	require.Len(t, h.gateway.Sent, 2)
	assert.Equal(t, "Obrigado!", h.gateway.Sent[1].Content)
}

func TestRunTimeoutRoutesTimeoutEdge(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	h.now = h.now.Add(6 * time.Minute)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, ResumeFromTimeout: true})
	require.NoError(t, err)

	assert.True(t, result.Completed)

	require.Len(t, h.gateway.Sent, 2)
	assert.Equal(t, "Ainda está aí?", h.gateway.Sent[1].Content)
}

func TestRunLateReplyAfterDeadlineRoutesTimeoutEdge(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	// The reply lands after the deadline but before the timer fired.
	h.now = h.now.Add(6 * time.Minute)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, UserInput: "desculpa a demora"})
	require.NoError(t, err)

	assert.True(t, result.Completed)

	stored := h.session(t, session.ID)
	assert.Equal(t, "desculpa a demora", stored.Variables["reply"], "late reply still captures the variable")

	require.Len(t, h.gateway.Sent, 2)
	assert.Equal(t, "Ainda está aí?", h.gateway.Sent[1].Content)
}

// waitOnlyResponseFlow authors a deadline on the wait but no timeout edge.
func waitOnlyResponseFlow() *models.Flow {
	return testutil.CreateTestFlow(
		testutil.WithNodes(
			&models.Node{ID: "start", Kind: models.NodeKindStart},
			&models.Node{ID: "wait", Kind: models.NodeKindWaitInput,
				Config: map[string]any{"variable": "reply", "timeout": "5m"}},
			&models.Node{ID: "thanks", Kind: models.NodeKindText,
				Config: map[string]any{"content": "Obrigado!"}},
			&models.Node{ID: "end", Kind: models.NodeKindEnd},
		),
		testutil.WithEdges(
			&models.Edge{ID: "e1", Source: "start", Target: "wait"},
			&models.Edge{ID: "e2", Source: "wait", Target: "thanks", Label: models.EdgeLabelResponse},
			&models.Edge{ID: "e3", Source: "thanks", Target: "end"},
		),
	)
}

func seedWaitOnlyResponse(t *testing.T, h *harness) *models.Session {
	t.Helper()

	flow := waitOnlyResponseFlow()
	contact := testutil.CreateTestContact()
	contact.ID = "contact-1"
	session := testutil.CreateTestSession()
	session.FlowID = flow.ID
	session.ContactID = contact.ID
	h.seed(t, flow, session, contact)

	return session
}

func TestRunTimeoutWithoutTimeoutEdgeEndsSession(t *testing.T) {
	h := newHarness(t, Config{})
	session := seedWaitOnlyResponse(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	h.now = h.now.Add(6 * time.Minute)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, ResumeFromTimeout: true})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Empty(t, h.gateway.Sent, "an elapsed wait must not follow the reply path")

	stored := h.session(t, session.ID)
	assert.Equal(t, models.SessionStatusCompleted, stored.Status)
}

func TestRunLateReplyWithoutTimeoutEdgeStaysParked(t *testing.T) {
	h := newHarness(t, Config{})
	session := seedWaitOnlyResponse(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	h.now = h.now.Add(6 * time.Minute)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, UserInput: "desculpa a demora"})
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.True(t, result.WaitingForInput)
	assert.Empty(t, h.gateway.Sent)

	stored := h.session(t, session.ID)
	assert.Equal(t, "wait", stored.CurrentNodeID)
	assert.Equal(t, "desculpa a demora", stored.Variables["reply"], "the late reply still captures the variable")
}

func TestRunRenewsLeaseOnLongRuns(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)

	fakeLease := &testutil.FakeLease{}
	h.engine.lease = fakeLease

	// Each clock read moves time forward, standing in for the inline
	// delays and typing pauses that hold the lease while the loop runs.
	tick := h.now
	h.engine.now = func() time.Time {
		tick = tick.Add(15 * time.Second)

		return tick
	}

	result, err := h.engine.Run(context.Background(), models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{session.ID}, fakeLease.Acquired)
	assert.NotEmpty(t, fakeLease.Renewed, "a run spanning the renew interval must extend its lease")
	assert.Equal(t, []string{session.ID}, fakeLease.Released)
}

func TestRunSkipsDuplicateSends(t *testing.T) {
	h := newHarness(t, Config{})
	flow := greetingFlow()
	contact := testutil.CreateTestContact()
	contact.ID = "contact-1"
	session := testutil.CreateTestSession(
		testutil.WithVariables(map[string]any{"name": "Maria"}),
		testutil.WithSentNodes("greet"),
	)
	session.FlowID = flow.ID
	session.ContactID = contact.ID
	h.seed(t, flow, session, contact)

	result, err := h.engine.Run(context.Background(), models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.True(t, result.WaitingForInput)
	assert.Empty(t, h.gateway.Sent)
}

func TestRunSkipsWhenLeaseHeld(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	held := h.session(t, session.ID)
	held.Processing = true
	startedAt := h.now.Add(-time.Second)
	held.ProcessingStartedAt = &startedAt
	require.NoError(t, h.persist.SessionRepository().SaveSession(ctx, held))

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Empty(t, h.gateway.Sent)
}

func TestRunTakesOverStaleLease(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	held := h.session(t, session.ID)
	held.Processing = true
	startedAt := h.now.Add(-2 * lease.DefaultDuration)
	held.ProcessingStartedAt = &startedAt
	require.NoError(t, h.persist.SessionRepository().SaveSession(ctx, held))

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.True(t, result.WaitingForInput)
}

func TestRunCompletedSessionIsNoop(t *testing.T) {
	h := newHarness(t, Config{})
	flow := greetingFlow()
	contact := testutil.CreateTestContact()
	contact.ID = "contact-1"
	session := testutil.CreateTestSession(
		testutil.WithSessionStatus(models.SessionStatusCompleted),
	)
	session.FlowID = flow.ID
	session.ContactID = contact.ID
	h.seed(t, flow, session, contact)

	result, err := h.engine.Run(context.Background(), models.Invocation{SessionID: session.ID, UserInput: "oi"})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Empty(t, h.gateway.Sent)
}

func TestRunPauseWindowBlocksSend(t *testing.T) {
	window := &models.PauseWindow{Start: "13:00", End: "15:00", Timezone: "UTC"}
	h := newHarness(t, Config{Pause: window})
	_, session := seedGreeting(t, h)

	result, err := h.engine.Run(context.Background(), models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.True(t, result.Paused)
	assert.Empty(t, h.gateway.Sent)

	stored := h.session(t, session.ID)
	assert.Equal(t, "greet", stored.CurrentNodeID)
	assert.Equal(t, "greet", stored.Internal.PausedNodeID)

	entry := h.pendingTimer(t, session.ID)
	require.NotNil(t, entry)
	assert.Equal(t, models.TimerReasonPauseResume, entry.Reason)
	assert.Equal(t, time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC), entry.RunAt.UTC())
}

func TestRunPauseResumeRetriesNode(t *testing.T) {
	window := &models.PauseWindow{Start: "13:00", End: "15:00", Timezone: "UTC"}
	h := newHarness(t, Config{Pause: window})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)
	require.Empty(t, h.gateway.Sent)

	h.now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, ResumeFromPause: true})
	require.NoError(t, err)

	assert.True(t, result.WaitingForInput)
	require.Len(t, h.gateway.Sent, 1)
	assert.Equal(t, "Oi Maria, tudo bem?", h.gateway.Sent[0].Content)

	stored := h.session(t, session.ID)
	assert.Empty(t, stored.Internal.PausedNodeID)
}

func TestRunSendFailureFreezesSession(t *testing.T) {
	h := newHarness(t, Config{DisconnectPhrases: []string{"instance disconnected"}})
	_, session := seedGreeting(t, h)
	h.gateway.Receipt = models.SendReceipt{OK: false, ErrorDetails: "instance disconnected: qr expired"}

	ctx := context.Background()
	require.NoError(t, h.persist.ChannelRepository().SaveChannel(ctx, &models.ChannelInstance{
		ID:     session.ChannelInstanceID,
		Status: models.ChannelInstanceConnected,
	}))

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "instance disconnected")

	stored := h.session(t, session.ID)
	assert.Equal(t, "greet", stored.CurrentNodeID)
	require.NotNil(t, stored.Internal.LastSendFailure)
	assert.Equal(t, "greet", stored.Internal.LastSendFailure.NodeID)
	assert.False(t, stored.HasSent("greet"))

	channel, err := h.persist.ChannelRepository().ChannelByID(ctx, session.ChannelInstanceID)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelInstanceDisconnected, channel.Status)
}

func TestRunFollowUpNudgesWithoutMovingCheckpoint(t *testing.T) {
	h := newHarness(t, Config{})
	flow := testutil.CreateTestFlow(
		testutil.WithNodes(
			&models.Node{ID: "start", Kind: models.NodeKindStart},
			&models.Node{ID: "wait", Kind: models.NodeKindWaitInput,
				Config: map[string]any{"variable": "reply", "timeout": "10m", "follow_up": "3m"}},
			&models.Node{ID: "poke", Kind: models.NodeKindText,
				Config: map[string]any{"content": "Só passando pra lembrar"}},
			&models.Node{ID: "end", Kind: models.NodeKindEnd},
		),
		testutil.WithEdges(
			&models.Edge{ID: "e1", Source: "start", Target: "wait"},
			&models.Edge{ID: "e2", Source: "wait", Target: "end", Label: models.EdgeLabelResponse},
			&models.Edge{ID: "e3", Source: "wait", Target: "poke", Label: models.EdgeLabelFollowUp},
		),
	)
	contact := testutil.CreateTestContact()
	contact.ID = "contact-1"
	session := testutil.CreateTestSession()
	session.FlowID = flow.ID
	session.ContactID = contact.ID
	h.seed(t, flow, session, contact)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	entry := h.pendingTimer(t, session.ID)
	require.NotNil(t, entry)
	assert.Equal(t, models.TimerReasonFollowUp, entry.Reason, "follow-up before timeout wins the slot")

	h.now = h.now.Add(3 * time.Minute)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, ResumeFromFollowUp: true})
	require.NoError(t, err)

	assert.True(t, result.WaitingForInput)
	assert.Equal(t, "wait", result.CurrentNode)

	require.Len(t, h.gateway.Sent, 1)
	assert.Equal(t, "Só passando pra lembrar", h.gateway.Sent[0].Content)

	stored := h.session(t, session.ID)
	assert.Equal(t, "wait", stored.CurrentNodeID)
	require.NotNil(t, stored.Internal.Wait["wait"])
	assert.Nil(t, stored.Internal.Wait["wait"].FollowUpAt, "follow-up fires once")

	rearmed := h.pendingTimer(t, session.ID)
	require.NotNil(t, rearmed)
	assert.Equal(t, models.TimerReasonTimeout, rearmed.Reason)
}

func TestRunFollowUpAfterReplyIsStale(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, ResumeFromFollowUp: true})
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Len(t, h.gateway.Sent, 1, "no follow-up message without an armed follow-up")
}

func TestRunMenuReplyByNumberAndLabel(t *testing.T) {
	flow := testutil.CreateTestFlow(
		testutil.WithNodes(
			&models.Node{ID: "start", Kind: models.NodeKindStart},
			&models.Node{ID: "menu", Kind: models.NodeKindMenu,
				Config: map[string]any{
					"text":     "Escolha:",
					"options":  []any{"Suporte", "Vendas"},
					"variable": "choice",
				}},
			&models.Node{ID: "support", Kind: models.NodeKindText,
				Config: map[string]any{"content": "Suporte na linha"}},
			&models.Node{ID: "sales", Kind: models.NodeKindText,
				Config: map[string]any{"content": "Vendas na linha"}},
			&models.Node{ID: "end", Kind: models.NodeKindEnd},
		),
		testutil.WithEdges(
			&models.Edge{ID: "e1", Source: "start", Target: "menu"},
			&models.Edge{ID: "e2", Source: "menu", Target: "support", Label: "Suporte"},
			&models.Edge{ID: "e3", Source: "menu", Target: "sales", Label: "Vendas"},
			&models.Edge{ID: "e4", Source: "support", Target: "end"},
			&models.Edge{ID: "e5", Source: "sales", Target: "end"},
		),
	)

	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "by number", reply: "2", want: "Vendas na linha"},
		{name: "by label", reply: "suporte", want: "Suporte na linha"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, Config{})
			contact := testutil.CreateTestContact()
			contact.ID = "contact-1"
			session := testutil.CreateTestSession()
			session.FlowID = flow.ID
			session.ContactID = contact.ID
			h.seed(t, flow, session, contact)
			ctx := context.Background()

			_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
			require.NoError(t, err)

			result, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID, UserInput: tc.reply})
			require.NoError(t, err)

			assert.True(t, result.Completed)
			require.Len(t, h.gateway.Sent, 2)
			assert.Equal(t, tc.want, h.gateway.Sent[1].Content)
		})
	}
}

func TestRunRepairsDanglingNodeReference(t *testing.T) {
	h := newHarness(t, Config{})
	flow := testutil.CreateTestFlow(
		testutil.WithNodes(
			&models.Node{ID: "greet", Kind: models.NodeKindText,
				Config: map[string]any{"content": "oi"}},
			&models.Node{ID: "end", Kind: models.NodeKindEnd},
		),
		testutil.WithEdges(
			&models.Edge{ID: "e1", Source: "ghost", Target: "greet"},
			&models.Edge{ID: "e2", Source: "greet", Target: "end"},
		),
	)
	contact := testutil.CreateTestContact()
	contact.ID = "contact-1"
	session := testutil.CreateTestSession(testutil.WithCurrentNode("ghost"))
	session.FlowID = flow.ID
	session.ContactID = contact.ID
	h.seed(t, flow, session, contact)

	result, err := h.engine.Run(context.Background(), models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	require.Len(t, h.gateway.Sent, 1)
}

func TestRunUnrepairableGraphCompletesWithError(t *testing.T) {
	h := newHarness(t, Config{})
	flow := testutil.CreateTestFlow(
		testutil.WithNodes(&models.Node{ID: "end", Kind: models.NodeKindEnd}),
		testutil.WithEdges(),
	)
	contact := testutil.CreateTestContact()
	contact.ID = "contact-1"
	session := testutil.CreateTestSession(testutil.WithCurrentNode("ghost"))
	session.FlowID = flow.ID
	session.ContactID = contact.ID
	h.seed(t, flow, session, contact)

	result, err := h.engine.Run(context.Background(), models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.True(t, result.Completed)

	stored := h.session(t, session.ID)
	assert.Equal(t, models.SessionStatusCompleted, stored.Status)
	assert.NotEmpty(t, stored.Internal.LastError)
}

func TestRunInboundMessageIsLogged(t *testing.T) {
	h := newHarness(t, Config{})
	_, session := seedGreeting(t, h)
	ctx := context.Background()

	_, err := h.engine.Run(ctx, models.Invocation{SessionID: session.ID})
	require.NoError(t, err)

	_, err = h.engine.Run(ctx, models.Invocation{SessionID: session.ID, UserInput: "oi"})
	require.NoError(t, err)

	history, err := h.persist.MessageRepository().Recent(ctx, session.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "oi", history[0].Text)
	assert.Equal(t, models.MessageKindText, history[0].Kind)
}
