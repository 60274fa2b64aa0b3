// Package engine is the dispatcher: it runs one interpreter invocation
// against a session under the processing lease, driving the node loop to
// completion or suspension.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/otelhelper"
	"github.com/jornadaflow/jornada/pkg/persistence"
	"github.com/jornadaflow/jornada/pkg/protocol"
	"github.com/jornadaflow/jornada/pkg/registry"
)

// maxSteps bounds one invocation's dispatch loop; a flow that advances
// this many times without suspending is treated as a graph error.
const maxSteps = 200

// leaseRenewInterval is how long a run may go between lease renewals.
// Inline delays and typing pauses keep the lease held while time passes;
// renewing well inside the staleness cutoff keeps a long chain of them
// from being taken over mid-run.
const leaseRenewInterval = 20 * time.Second

// Config holds the dispatcher's tunables.
type Config struct {
	// Pause is the recurring daily quiet window, nil when disabled.
	Pause *models.PauseWindow

	// DisconnectPhrases are gateway error substrings that flag the
	// channel instance as disconnected.
	DisconnectPhrases []string
}

// Engine runs invocations. It owns the send path (pause gate, idempotency
// set, failure recording) and the checkpoint-advance on inbound input.
type Engine struct {
	persist  persistence.Persistence
	registry *registry.Registry
	lease    protocol.Lease
	timers   protocol.TimerQueue
	gateway  protocol.Gateway
	judge    protocol.Judge
	events   protocol.EventSink
	logger   *slog.Logger
	tracer   trace.Tracer
	cfg      Config

	now func() time.Time
}

// New creates an engine.
func New(
	persist persistence.Persistence,
	reg *registry.Registry,
	lease protocol.Lease,
	timers protocol.TimerQueue,
	gateway protocol.Gateway,
	judge protocol.Judge,
	events protocol.EventSink,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	return &Engine{
		persist:  persist,
		registry: reg,
		lease:    lease,
		timers:   timers,
		gateway:  gateway,
		judge:    judge,
		events:   events,
		logger:   logger,
		tracer:   noop.NewTracerProvider().Tracer("engine"),
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithTracer installs a real tracer.
func (e *Engine) WithTracer(tracer trace.Tracer) *Engine {
	e.tracer = tracer

	return e
}

// WithClock fixes the engine clock for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now

	return e
}

// Run executes one invocation. Lease denial is not an error: the caller
// gets a skipped result and the concurrent holder finishes its run.
func (e *Engine) Run(ctx context.Context, inv models.Invocation) (models.Result, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.run",
		attribute.String("session.id", inv.SessionID))
	defer span.End()

	granted, err := e.lease.Acquire(ctx, inv.SessionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return models.Result{}, fmt.Errorf("failed to acquire session lease: %w", err)
	}

	if !granted {
		e.logger.InfoContext(ctx, "Session busy, skipping invocation", "session_id", inv.SessionID)

		return models.Result{Success: true, Skipped: true, Reason: "already processing"}, nil
	}

	defer func() {
		if releaseErr := e.lease.Release(context.WithoutCancel(ctx), inv.SessionID); releaseErr != nil {
			e.logger.ErrorContext(ctx, "Failed to release session lease",
				"session_id", inv.SessionID, "error", releaseErr)
		}
	}()

	result, err := e.run(ctx, inv)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return result, err
}

func (e *Engine) run(ctx context.Context, inv models.Invocation) (models.Result, error) {
	session, err := e.persist.SessionRepository().SessionByID(ctx, inv.SessionID)
	if err != nil {
		return models.Result{}, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Status == models.SessionStatusCompleted {
		return models.Result{Success: true, Completed: true, CurrentNode: session.CurrentNodeID,
			Reason: "session already completed"}, nil
	}

	flow, err := e.persist.FlowRepository().FlowByID(ctx, session.FlowID)
	if err != nil {
		return models.Result{}, fmt.Errorf("failed to load flow: %w", err)
	}

	contact, err := e.persist.ContactRepository().ContactByID(ctx, session.ContactID)
	if err != nil {
		e.logger.WarnContext(ctx, "Contact unavailable, running without it",
			"session_id", session.ID, "contact_id", session.ContactID, "error", err)

		contact = &models.Contact{ID: session.ContactID}
	}

	run := &runState{engine: e, session: session, flow: flow, inv: inv}
	scope := &protocol.ExecutionScope{
		Session:    session,
		Flow:       flow,
		Contact:    contact,
		Invocation: inv,
		Sender:     &sender{run: run},
		Judge:      e.judge,
		Timers:     e.timers,
		Messages:   e.persist.MessageRepository(),
		Contacts:   e.persist.ContactRepository(),
		Publish:    e.events,
		Logger:     e.logger.With("session_id", session.ID),
		Now:        e.now,
	}
	run.scope = scope

	if err := e.handleInbound(ctx, run); err != nil {
		return models.Result{}, err
	}

	if inv.ResumeFromFollowUp {
		return e.runFollowUp(ctx, run)
	}

	return e.loop(ctx, run)
}

// runState is the per-invocation mutable context shared between the loop,
// the send path and inbound handling.
type runState struct {
	engine  *Engine
	session *models.Session
	flow    *models.Flow
	inv     models.Invocation
	scope   *protocol.ExecutionScope
	actions []string

	lastRenew time.Time
}

// renewLease extends the processing lease once enough run time has passed.
// A failed renewal is logged and the run continues; the next conditional
// write decides the race.
func (r *runState) renewLease(ctx context.Context) {
	e := r.engine
	now := e.now()

	if r.lastRenew.IsZero() {
		r.lastRenew = now

		return
	}

	if now.Sub(r.lastRenew) < leaseRenewInterval {
		return
	}

	if err := e.lease.Renew(ctx, r.session.ID); err != nil {
		e.logger.WarnContext(ctx, "Failed to renew session lease",
			"session_id", r.session.ID, "error", err)
	}

	r.lastRenew = now
}

func (r *runState) save(ctx context.Context) error {
	r.session.UpdatedAt = r.engine.now()

	if err := r.engine.persist.SessionRepository().SaveSession(ctx, r.session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	return nil
}

func (r *runState) record(action string) {
	r.actions = append(r.actions, action)
}

// loop is the dispatch loop: resolve the current node, execute it, follow
// the chosen edge, checkpointing every transition.
func (e *Engine) loop(ctx context.Context, run *runState) (models.Result, error) {
	session := run.session

	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			return e.failGraph(ctx, run, fmt.Sprintf("dispatch loop exceeded %d steps at node %s", maxSteps, session.CurrentNodeID))
		}

		run.renewLease(ctx)

		node := run.flow.NodeByID(session.CurrentNodeID)
		if node == nil {
			repaired, ok := run.flow.Repair(session.CurrentNodeID)
			if !ok {
				return e.failGraph(ctx, run, fmt.Sprintf("node %s missing and unrepairable", session.CurrentNodeID))
			}

			e.logger.WarnContext(ctx, "Repaired missing node reference",
				"session_id", session.ID, "missing", session.CurrentNodeID, "repaired", repaired)
			session.CurrentNodeID = repaired

			if err := run.save(ctx); err != nil {
				return models.Result{}, err
			}

			continue
		}

		handler, err := e.registry.Create(node)
		if err != nil {
			return e.failGraph(ctx, run, err.Error())
		}

		outcome, err := handler.Execute(ctx, run.scope)
		if err != nil {
			if saveErr := run.save(ctx); saveErr != nil {
				e.logger.ErrorContext(ctx, "Failed to persist session after handler error",
					"session_id", session.ID, "error", saveErr)
			}

			return models.Result{}, fmt.Errorf("node %s (%s) failed: %w", node.ID, node.Kind, err)
		}

		run.record(fmt.Sprintf("%s:%s", node.Kind, node.ID))

		switch outcome.Kind {
		case models.OutcomeAdvance:
			next := outcome.NextNodeID
			if next == "" {
				edge := e.resolveEdge(run.flow, node.ID, outcome.NextLabel)
				if edge == nil {
					// Dead end: a path with nowhere to go completes the
					// session like an implicit end.
					reason := "no outgoing edge from " + node.ID
					if outcome.NextLabel != "" {
						reason = fmt.Sprintf("no %q edge from %s", outcome.NextLabel, node.ID)
					}

					return e.terminate(ctx, run, reason)
				}

				next = edge.Target
			}

			session.CurrentNodeID = next
			if err := run.save(ctx); err != nil {
				return models.Result{}, err
			}

		case models.OutcomeSuspend:
			return e.suspend(ctx, run, node, outcome)

		case models.OutcomeTerminate:
			return e.terminate(ctx, run, outcome.Reason)
		}
	}
}

// resolveEdge picks the outgoing edge for a label. The timeout label is
// strict: an elapsed wait must never impersonate a reply, so it takes the
// "timeout" edge or nothing at all.
func (e *Engine) resolveEdge(flow *models.Flow, nodeID string, label string) *models.Edge {
	if label == models.EdgeLabelTimeout {
		return flow.EdgeByLabel(nodeID, label)
	}

	return flow.PickEdge(nodeID, label)
}

// suspend persists the parked session and maps the reason onto result
// flags. Pause suspension additionally schedules the window-end wake-up.
func (e *Engine) suspend(ctx context.Context, run *runState, node *models.Node, outcome models.Outcome) (models.Result, error) {
	session := run.session

	if outcome.Suspend == models.SuspendPaused {
		session.Internal.PausedNodeID = node.ID

		if e.cfg.Pause != nil {
			resumeAt := e.cfg.Pause.NextEnd(e.now())
			if err := e.timers.ScheduleOrTighten(ctx, session.ID, resumeAt, models.TimerReasonPauseResume); err != nil {
				return models.Result{}, err
			}
		}
	}

	if err := run.save(ctx); err != nil {
		return models.Result{}, err
	}

	result := models.Result{
		Success:     true,
		CurrentNode: session.CurrentNodeID,
		Actions:     run.actions,
	}

	switch outcome.Suspend {
	case models.SuspendWaitingInput, models.SuspendWaitingReply:
		result.WaitingForInput = true
	case models.SuspendWaitingPayment:
		result.WaitingForPayment = true
	case models.SuspendScheduledDelay:
		result.ScheduledDelay = true
	case models.SuspendPaused:
		result.Paused = true
	case models.SuspendSendFailure:
		result.Success = false
		result.Reason = "send failed"

		if f := session.Internal.LastSendFailure; f != nil {
			result.Reason = fmt.Sprintf("send failed at node %s: %s", f.NodeID, f.Reason)
		}
	}

	return result, nil
}

// terminate completes the session, cancels any pending timer and persists.
func (e *Engine) terminate(ctx context.Context, run *runState, reason string) (models.Result, error) {
	session := run.session
	session.Complete()

	if err := e.timers.Cancel(ctx, session.ID); err != nil {
		return models.Result{}, err
	}

	if err := run.save(ctx); err != nil {
		return models.Result{}, err
	}

	e.events.Emit(ctx, "session.completed", map[string]any{
		"session_id": session.ID,
		"flow_id":    session.FlowID,
		"contact_id": session.ContactID,
		"reason":     reason,
	})

	return models.Result{
		Success:     true,
		Completed:   true,
		CurrentNode: session.CurrentNodeID,
		Actions:     run.actions,
		Reason:      reason,
	}, nil
}

// failGraph completes the session with a recorded graph error.
func (e *Engine) failGraph(ctx context.Context, run *runState, reason string) (models.Result, error) {
	session := run.session
	session.Internal.LastError = reason
	session.Complete()

	e.logger.ErrorContext(ctx, "Graph error completed session",
		"session_id", session.ID, "reason", reason)

	if err := e.timers.Cancel(ctx, session.ID); err != nil {
		return models.Result{}, err
	}

	if err := run.save(ctx); err != nil {
		return models.Result{}, err
	}

	return models.Result{
		Success:     false,
		Completed:   true,
		CurrentNode: session.CurrentNodeID,
		Actions:     run.actions,
		Reason:      reason,
	}, nil
}
