// Package protocol defines the interfaces and contracts between the
// dispatcher, node handlers and external collaborators.
package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/template"
)

// Node is one executable step of a flow graph. Implementations are closed
// tagged variants: each kind's factory decodes the node's config map into a
// typed struct once, at creation, so Execute never inspects untyped bags.
type Node interface {
	// ID returns the node's id within its flow.
	ID() string

	// Kind returns the node kind this handler implements.
	Kind() models.NodeKind

	// Execute runs the node against the session scope and tells the
	// dispatcher what to do next.
	Execute(ctx context.Context, scope *ExecutionScope) (models.Outcome, error)
}

// NodeFactory creates node handler instances from authored configuration.
type NodeFactory interface {
	// Create builds a handler for one node instance, validating and
	// decoding its config map.
	Create(id string, config map[string]any) (Node, error)

	// Kind returns the node kind this factory produces.
	Kind() models.NodeKind

	// Name returns a human-readable name for flow editors.
	Name() string

	// Description returns a short description of what the node does.
	Description() string

	// Schema returns the JSON schema for the node's configuration.
	Schema() map[string]any
}

// SendStatus is the result of routing a message through the dispatcher's
// send path.
type SendStatus int

const (
	// SendDelivered means the gateway accepted the message and the node
	// id was persisted into the idempotency set.
	SendDelivered SendStatus = iota
	// SendSkippedDuplicate means the node already sent in a previous
	// invocation; the handler just advances.
	SendSkippedDuplicate
	// SendPaused means the pause-window gate is active; the handler
	// suspends and the node is retried verbatim on resume.
	SendPaused
	// SendFailed means the gateway reported not-ok; the session freezes
	// at this node with the failure recorded.
	SendFailed
)

// MessageSender is the dispatcher's send path: it applies the pause-window
// gate and the idempotency set around the messaging gateway, and persists
// the idempotency set immediately after a successful send.
type MessageSender interface {
	Send(ctx context.Context, nodeID string, msg models.OutboundMessage) (SendStatus, error)
}

// ExecutionScope is everything a node handler may touch while executing:
// the session being driven, its flow and contact, the triggering
// invocation, and the dispatcher-provided services.
type ExecutionScope struct {
	Session    *models.Session
	Flow       *models.Flow
	Contact    *models.Contact
	Invocation models.Invocation

	Sender   MessageSender
	Judge    Judge
	Timers   TimerQueue
	Messages MessageLog
	Contacts ContactStore
	Publish  EventSink

	Logger *slog.Logger

	// Now is the dispatcher's clock, injectable in tests.
	Now func() time.Time
}

// RenderString substitutes session variables into node-configured text.
func (s *ExecutionScope) RenderString(input string) string {
	return template.Render(input, s.Session.Variables)
}

// MessageLog reads the inbound message history the payment sub-machine and
// the AI judge consume.
type MessageLog interface {
	// ListSince returns messages received strictly after since, oldest
	// first, so a caller can use the last message's timestamp as its
	// next cursor.
	ListSince(ctx context.Context, sessionID string, since time.Time) ([]models.InboundMessage, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]models.InboundMessage, error)
}

// ContactStore persists contact mutations made by nodes (tagging).
type ContactStore interface {
	SaveContact(ctx context.Context, contact *models.Contact) error
}

// EventSink lets nodes emit domain events (analytics pixels, admin
// notifications) without knowing the bus.
type EventSink interface {
	Emit(ctx context.Context, eventType string, payload map[string]any)
}
