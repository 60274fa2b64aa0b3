package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/template"
)

// handleInbound logs the invocation's user message and, when the session is
// parked on a waiting node, advances the checkpoint before the dispatch
// loop runs. Payment and AI-dialogue nodes consume their own input, so
// checkpoint advance is deferred to their handlers.
func (e *Engine) handleInbound(ctx context.Context, run *runState) error {
	inv := run.inv
	if !inv.HasInput() {
		return nil
	}

	session := run.session
	now := e.now()

	msg := &models.InboundMessage{
		ID:         uuid.NewString(),
		SessionID:  session.ID,
		ContactID:  session.ContactID,
		Kind:       inv.InputKind,
		Text:       inv.UserInput,
		MediaRef:   inv.MediaRef,
		ReceivedAt: now,
	}
	if msg.Kind == "" {
		msg.Kind = models.MessageKindText
	}

	if err := e.persist.MessageRepository().AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to log inbound message: %w", err)
	}

	session.LastInteraction = now
	session.SetVariable("last_message", inv.UserInput)
	session.SetVariable("last_message_kind", string(msg.Kind))

	e.events.Emit(ctx, "message.received", map[string]any{
		"session_id": session.ID,
		"contact_id": session.ContactID,
		"kind":       string(msg.Kind),
	})

	node := run.flow.NodeByID(session.CurrentNodeID)
	if node == nil {
		return nil
	}

	// These kinds run their own input sub-machine inside Execute.
	if node.Kind == models.NodeKindPaymentIdentifier || node.Kind == models.NodeKindIAConverter {
		return nil
	}

	ws := session.WaitStateFor(node.ID, false)
	if ws == nil {
		return nil
	}

	return e.advanceCheckpoint(ctx, run, node, ws, now)
}

// advanceCheckpoint consumes a reply at a waiting node: the variable is
// captured unconditionally, then the reply routes the response edge, or the
// timeout edge when the deadline already elapsed before the reply arrived.
func (e *Engine) advanceCheckpoint(ctx context.Context, run *runState, node *models.Node, ws *models.WaitState, now time.Time) error {
	session := run.session
	inv := run.inv

	if ws.Variable != "" {
		session.SetVariable(ws.Variable, inv.UserInput)
	}

	label := models.EdgeLabelResponse

	if ws.TimeoutAt != nil && now.After(*ws.TimeoutAt) {
		label = models.EdgeLabelTimeout
	} else if node.Kind == models.NodeKindMenu {
		if picked, ok := matchMenuOption(node, inv.UserInput); ok {
			if run.flow.EdgeByLabel(node.ID, picked) != nil {
				label = picked
			}

			if ws.Variable != "" {
				session.SetVariable(ws.Variable, picked)
			}
		}
	}

	edge := e.resolveEdge(run.flow, node.ID, label)
	if edge == nil {
		e.logger.WarnContext(ctx, "Waiting node has no edge for reply, staying parked",
			"session_id", session.ID, "node_id", node.ID, "label", label)

		return run.save(ctx)
	}

	session.ClearWaitState(node.ID)

	if err := e.timers.Cancel(ctx, session.ID); err != nil {
		return err
	}

	session.CurrentNodeID = edge.Target
	run.record(fmt.Sprintf("reply:%s:%s", node.ID, label))

	return run.save(ctx)
}

// matchMenuOption resolves a reply to a menu option label, accepting the
// option's 1-based number or its normalized text.
func matchMenuOption(node *models.Node, reply string) (string, bool) {
	options := nodeconfig.Strings(node.Config, "options")
	if len(options) == 0 {
		for _, m := range nodeconfig.Maps(node.Config, "options") {
			if label, ok := m["label"].(string); ok {
				options = append(options, label)
			}
		}
	}

	trimmed := template.Normalize(reply)
	if idx, err := strconv.Atoi(trimmed); err == nil && idx >= 1 && idx <= len(options) {
		return options[idx-1], true
	}

	for _, option := range options {
		if template.NormalizedEqual(option, reply) {
			return option, true
		}
	}

	return "", false
}

// runFollowUp executes a follow-up wake-up: a bounded side walk starting at
// the waiting node's followUp edge, leaving the checkpoint parked at the
// waiting node so the contact's eventual reply still resolves it. The
// timeout deadline is re-armed afterwards.
func (e *Engine) runFollowUp(ctx context.Context, run *runState) (models.Result, error) {
	session := run.session

	node := run.flow.NodeByID(session.CurrentNodeID)
	if node == nil {
		return e.loop(ctx, run)
	}

	ws := session.WaitStateFor(node.ID, false)
	if ws == nil || ws.FollowUpAt == nil {
		// Stale wake-up, the wait already resolved.
		return models.Result{Success: true, Skipped: true, CurrentNode: session.CurrentNodeID,
			Reason: "follow-up no longer armed"}, nil
	}

	ws.FollowUpAt = nil

	edge := run.flow.EdgeByLabel(node.ID, models.EdgeLabelFollowUp)
	if edge == nil {
		if err := run.save(ctx); err != nil {
			return models.Result{}, err
		}

		return models.Result{Success: true, WaitingForInput: true, CurrentNode: session.CurrentNodeID,
			Reason: "no follow-up edge"}, nil
	}

	if err := e.sideWalk(ctx, run, edge.Target); err != nil {
		return models.Result{}, err
	}

	if ws.TimeoutAt != nil {
		if err := e.timers.ScheduleOrTighten(ctx, session.ID, *ws.TimeoutAt, models.TimerReasonTimeout); err != nil {
			return models.Result{}, err
		}
	}

	if err := run.save(ctx); err != nil {
		return models.Result{}, err
	}

	return models.Result{
		Success:         true,
		WaitingForInput: true,
		CurrentNode:     session.CurrentNodeID,
		Actions:         run.actions,
	}, nil
}

// sideWalk runs a linear branch of message and action nodes without moving
// the session checkpoint. It stops at the branch's end, at any node that
// needs to suspend, or at the step bound.
func (e *Engine) sideWalk(ctx context.Context, run *runState, startID string) error {
	current := startID

	for steps := 0; steps < maxSteps; steps++ {
		run.renewLease(ctx)

		node := run.flow.NodeByID(current)
		if node == nil {
			return nil
		}

		handler, err := e.registry.Create(node)
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping unbuildable follow-up node",
				"session_id", run.session.ID, "node_id", current, "error", err)

			return nil
		}

		outcome, err := handler.Execute(ctx, run.scope)
		if err != nil {
			return fmt.Errorf("follow-up node %s failed: %w", current, err)
		}

		run.record(fmt.Sprintf("followup:%s:%s", node.Kind, node.ID))

		if outcome.Kind != models.OutcomeAdvance {
			return nil
		}

		next := outcome.NextNodeID
		if next == "" {
			edge := run.flow.PickEdge(node.ID, outcome.NextLabel)
			if edge == nil {
				return nil
			}

			next = edge.Target
		}

		current = next
	}

	return nil
}
