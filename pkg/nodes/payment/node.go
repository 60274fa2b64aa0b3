// Package payment provides the paymentIdentifier node: a sub-machine that
// watches inbound messages for a valid payment receipt. Its state lives in
// the session keyed by node id, so several instances in one flow don't
// collide.
package payment

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

const defaultMaxAttempts = 3

// PaymentNode consumes inbound messages against an attempt budget, sending
// image and document attachments to the AI judgment service for receipt
// classification.
type PaymentNode struct {
	id          string
	maxAttempts int
	grace       time.Duration
	allowList   []Recipient
}

// NewPaymentNode creates a paymentIdentifier node handler.
func NewPaymentNode(id string, cfg map[string]any) (*PaymentNode, error) {
	var allowList []Recipient

	for _, m := range nodeconfig.Maps(cfg, "allowed_recipients") {
		allowList = append(allowList, Recipient{
			Name:       nodeconfig.StringOr(m, "name", ""),
			Identifier: nodeconfig.StringOr(m, "identifier", ""),
		})
	}

	return &PaymentNode{
		id:          id,
		maxAttempts: nodeconfig.IntOr(cfg, "max_attempts", defaultMaxAttempts),
		grace:       nodeconfig.DurationOr(cfg, "no_response_grace", 0),
		allowList:   allowList,
	}, nil
}

func (n *PaymentNode) ID() string            { return n.id }
func (n *PaymentNode) Kind() models.NodeKind { return models.NodeKindPaymentIdentifier }

func (n *PaymentNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	session := scope.Session

	st := session.PaymentStateFor(n.id, false)
	if st == nil {
		return n.arm(ctx, scope)
	}

	if scope.Invocation.ResumeFromNoResponse {
		return n.resolveNoResponse(scope, st)
	}

	messages, err := scope.Messages.ListSince(ctx, session.ID, st.Since)
	if err != nil {
		return models.Outcome{}, err
	}

	if len(messages) > 0 && st.NoResponseAt != nil {
		// Any inbound activity supersedes the no-response countdown.
		st.NoResponseAt = nil

		if err := scope.Timers.Cancel(ctx, session.ID); err != nil {
			return models.Outcome{}, err
		}
	}

	for _, msg := range messages {
		st.Attempts++
		st.Since = msg.ReceivedAt

		if n.classify(ctx, scope, msg) {
			n.clear(session)

			if err := scope.Timers.Cancel(ctx, session.ID); err != nil {
				return models.Outcome{}, err
			}

			return models.Advance(models.EdgeLabelPaid), nil
		}

		if st.Attempts >= n.maxAttempts {
			n.clear(session)

			return models.Advance(models.EdgeLabelNotPaid), nil
		}
	}

	return models.Suspend(models.SuspendWaitingPayment), nil
}

// arm starts the watch: stamp the cursor and, when configured, the
// no-response grace deadline.
func (n *PaymentNode) arm(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	now := scope.Now()

	st := scope.Session.PaymentStateFor(n.id, true)
	st.Since = now

	if n.grace > 0 {
		at := now.Add(n.grace)
		st.NoResponseAt = &at

		if err := scope.Timers.ScheduleOrTighten(ctx, scope.Session.ID, at, models.TimerReasonPaymentNoResponse); err != nil {
			return models.Outcome{}, err
		}
	}

	return models.Suspend(models.SuspendWaitingPayment), nil
}

// resolveNoResponse handles the grace timer firing. It only routes
// noResponse when literally nothing arrived; a stale wake-up after inbound
// activity keeps waiting.
func (n *PaymentNode) resolveNoResponse(scope *protocol.ExecutionScope, st *models.PaymentState) (models.Outcome, error) {
	if st.NoResponseAt != nil && st.Attempts == 0 {
		n.clear(scope.Session)

		return models.Advance(models.EdgeLabelNoResponse), nil
	}

	st.NoResponseAt = nil

	return models.Suspend(models.SuspendWaitingPayment), nil
}

// classify reports whether one inbound message is a validated receipt.
// Only image and document kinds are worth a judgment call; everything else
// just burns an attempt.
func (n *PaymentNode) classify(ctx context.Context, scope *protocol.ExecutionScope, msg models.InboundMessage) bool {
	if msg.Kind != models.MessageKindImage && msg.Kind != models.MessageKindDocument {
		return false
	}

	verdict, err := scope.Judge.ClassifyReceipt(ctx, models.Attachment{
		Kind:     msg.Kind,
		MediaRef: msg.MediaRef,
		Caption:  msg.Text,
	})
	if err != nil {
		scope.Logger.Warn("receipt classification degraded", "node_id", n.id, "error", err)

		return false
	}

	if !verdict.IsReceipt {
		return false
	}

	if len(n.allowList) > 0 && !matchesAllowList(verdict, n.allowList) {
		scope.Logger.Info("receipt recipient not registered, attempt downgraded",
			"node_id", n.id, "recipient_name", verdict.RecipientName)

		return false
	}

	return true
}

func (n *PaymentNode) clear(session *models.Session) {
	delete(session.Internal.Payment, n.id)
}
