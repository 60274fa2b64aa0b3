// Package waitinput provides the suspension points of a flow: waitInput
// parks the session until the contact replies, menu additionally presents
// the choices first. Reply handling itself lives in the dispatcher; these
// handlers only arm the wait state and its deadlines.
package waitinput

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// WaitInputNode parks the session until the contact replies, with optional
// timeout and follow-up deadlines.
type WaitInputNode struct {
	id       string
	variable string
	timeout  time.Duration
	followUp time.Duration
}

// NewWaitInputNode creates a waitInput node handler.
func NewWaitInputNode(id string, cfg map[string]any) (*WaitInputNode, error) {
	return &WaitInputNode{
		id:       id,
		variable: nodeconfig.StringOr(cfg, "variable", ""),
		timeout:  nodeconfig.DurationOr(cfg, "timeout", 0),
		followUp: nodeconfig.DurationOr(cfg, "follow_up", 0),
	}, nil
}

func (n *WaitInputNode) ID() string            { return n.id }
func (n *WaitInputNode) Kind() models.NodeKind { return models.NodeKindWaitInput }

func (n *WaitInputNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	if outcome, done, err := resolveWait(ctx, scope, n.id); done {
		return outcome, err
	}

	ws := armWait(scope, n.id, n.variable, n.timeout, n.followUp)

	return suspendWaiting(ctx, scope, ws)
}

// MenuNode sends a list of choices and parks the session until the contact
// picks one. The reply is matched against the option labels by the
// dispatcher.
type MenuNode struct {
	id       string
	text     string
	options  []string
	variable string
	timeout  time.Duration
	followUp time.Duration
}

// NewMenuNode creates a menu node handler.
func NewMenuNode(id string, cfg map[string]any) (*MenuNode, error) {
	text, err := nodeconfig.String(cfg, "text")
	if err != nil {
		return nil, err
	}

	options := nodeconfig.Strings(cfg, "options")
	if len(options) == 0 {
		for _, m := range nodeconfig.Maps(cfg, "options") {
			if label, ok := m["label"].(string); ok {
				options = append(options, label)
			}
		}
	}

	if len(options) == 0 {
		return nil, fmt.Errorf("%w 'options'", nodeconfig.ErrMissing)
	}

	return &MenuNode{
		id:       id,
		text:     text,
		options:  options,
		variable: nodeconfig.StringOr(cfg, "variable", ""),
		timeout:  nodeconfig.DurationOr(cfg, "timeout", 0),
		followUp: nodeconfig.DurationOr(cfg, "follow_up", 0),
	}, nil
}

func (n *MenuNode) ID() string            { return n.id }
func (n *MenuNode) Kind() models.NodeKind { return models.NodeKindMenu }

// Options returns the menu labels in display order.
func (n *MenuNode) Options() []string { return n.options }

func (n *MenuNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	if outcome, done, err := resolveWait(ctx, scope, n.id); done {
		return outcome, err
	}

	var b strings.Builder

	b.WriteString(scope.RenderString(n.text))

	for i, option := range n.options {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, scope.RenderString(option)))
	}

	status, err := scope.Sender.Send(ctx, n.id, models.OutboundMessage{
		ChannelInstance: scope.Session.ChannelInstanceID,
		Recipient:       scope.Contact.Phone,
		Kind:            models.MessageKindText,
		Content:         b.String(),
	})
	if err != nil {
		return models.Outcome{}, err
	}

	switch status {
	case protocol.SendPaused:
		return models.Suspend(models.SuspendPaused), nil
	case protocol.SendFailed:
		return models.Suspend(models.SuspendSendFailure), nil
	}

	ws := armWait(scope, n.id, n.variable, n.timeout, n.followUp)

	return suspendWaiting(ctx, scope, ws)
}

// resolveWait handles re-entry at an already waiting node. It reports done
// when the outcome is decided without re-arming the wait.
func resolveWait(ctx context.Context, scope *protocol.ExecutionScope, nodeID string) (models.Outcome, bool, error) {
	session := scope.Session

	ws := session.WaitStateFor(nodeID, false)
	if ws == nil {
		return models.Outcome{}, false, nil
	}

	inv := scope.Invocation

	switch {
	case inv.ResumeFromTimeout:
		session.ClearWaitState(nodeID)

		return models.Advance(models.EdgeLabelTimeout), true, nil
	case inv.ForceDefaultEdge:
		session.ClearWaitState(nodeID)

		if err := scope.Timers.Cancel(ctx, session.ID); err != nil {
			return models.Outcome{}, true, err
		}

		return models.Advance(models.EdgeLabelResponse), true, nil
	}

	// Re-entered while still waiting, for example resuming after a pause
	// window. Re-arm the deadline and keep waiting.
	outcome, err := suspendWaiting(ctx, scope, ws)

	return outcome, true, err
}

// armWait records the wait state and its absolute deadlines from the
// dispatcher clock.
func armWait(scope *protocol.ExecutionScope, nodeID, variable string, timeout, followUp time.Duration) *models.WaitState {
	now := scope.Now()
	session := scope.Session

	ws := session.WaitStateFor(nodeID, true)
	ws.Variable = variable

	if timeout > 0 {
		at := now.Add(timeout)
		ws.TimeoutAt = &at
		session.TimeoutAt = &at
	}

	// A follow-up at or past the timeout can never fire; storing it would
	// leave a dead deadline for a stray wake-up to honor.
	if followUp > 0 {
		at := now.Add(followUp)
		if ws.TimeoutAt == nil || at.Before(*ws.TimeoutAt) {
			ws.FollowUpAt = &at
		}
	}

	return ws
}

// suspendWaiting schedules the next deadline, if any, and parks the
// session. A follow-up is scheduled only when it comes strictly before the
// timeout; otherwise the timeout wins and the follow-up never fires.
func suspendWaiting(ctx context.Context, scope *protocol.ExecutionScope, ws *models.WaitState) (models.Outcome, error) {
	runAt, reason, ok := nextDeadline(ws)
	if ok {
		if err := scope.Timers.ScheduleOrTighten(ctx, scope.Session.ID, runAt, reason); err != nil {
			return models.Outcome{}, err
		}
	}

	return models.Suspend(models.SuspendWaitingInput), nil
}

func nextDeadline(ws *models.WaitState) (time.Time, models.TimerReason, bool) {
	if ws.FollowUpAt != nil && (ws.TimeoutAt == nil || ws.FollowUpAt.Before(*ws.TimeoutAt)) {
		return *ws.FollowUpAt, models.TimerReasonFollowUp, true
	}

	if ws.TimeoutAt != nil {
		return *ws.TimeoutAt, models.TimerReasonTimeout, true
	}

	return time.Time{}, "", false
}
