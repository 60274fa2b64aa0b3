// Package control provides the flow boundary nodes: start, end and the
// human-handoff transfer.
package control

import (
	"context"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// StartNode is the flow entry point.
type StartNode struct {
	id string
}

// NewStartNode creates a start node handler.
func NewStartNode(id string, _ map[string]any) (*StartNode, error) {
	return &StartNode{id: id}, nil
}

func (n *StartNode) ID() string            { return n.id }
func (n *StartNode) Kind() models.NodeKind { return models.NodeKindStart }

func (n *StartNode) Execute(_ context.Context, _ *protocol.ExecutionScope) (models.Outcome, error) {
	return models.Advance(""), nil
}

// EndNode completes the session.
type EndNode struct {
	id string
}

// NewEndNode creates an end node handler.
func NewEndNode(id string, _ map[string]any) (*EndNode, error) {
	return &EndNode{id: id}, nil
}

func (n *EndNode) ID() string            { return n.id }
func (n *EndNode) Kind() models.NodeKind { return models.NodeKindEnd }

func (n *EndNode) Execute(_ context.Context, _ *protocol.ExecutionScope) (models.Outcome, error) {
	return models.Terminate("reached end node"), nil
}

// TransferNode hands the conversation to a human operator: it sends an
// optional handoff message and completes the session so the interpreter
// stops driving it.
type TransferNode struct {
	id      string
	message string
}

// NewTransferNode creates a transfer node handler.
func NewTransferNode(id string, cfg map[string]any) (*TransferNode, error) {
	return &TransferNode{
		id:      id,
		message: nodeconfig.StringOr(cfg, "message", ""),
	}, nil
}

func (n *TransferNode) ID() string            { return n.id }
func (n *TransferNode) Kind() models.NodeKind { return models.NodeKindTransfer }

func (n *TransferNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	if n.message == "" {
		return models.Terminate("transferred to operator"), nil
	}

	status, err := scope.Sender.Send(ctx, n.id, models.OutboundMessage{
		ChannelInstance: scope.Session.ChannelInstanceID,
		Recipient:       scope.Contact.Phone,
		Kind:            models.MessageKindText,
		Content:         scope.RenderString(n.message),
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

	return models.Terminate("transferred to operator"), nil
}
