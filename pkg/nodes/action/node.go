// Package action provides the side-effecting non-message node handlers:
// variable writes, contact tagging, admin notifications, analytics pixels,
// voice call requests and generic AI generation.
package action

import (
	"context"
	"fmt"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

const generateHistoryLimit = 10

// SetVariableNode writes a templated value into a session variable.
type SetVariableNode struct {
	id       string
	variable string
	value    string
}

// NewSetVariableNode creates a setVariable node handler.
func NewSetVariableNode(id string, cfg map[string]any) (*SetVariableNode, error) {
	variable, err := nodeconfig.String(cfg, "variable")
	if err != nil {
		return nil, err
	}

	return &SetVariableNode{
		id:       id,
		variable: variable,
		value:    nodeconfig.StringOr(cfg, "value", ""),
	}, nil
}

func (n *SetVariableNode) ID() string            { return n.id }
func (n *SetVariableNode) Kind() models.NodeKind { return models.NodeKindSetVariable }

func (n *SetVariableNode) Execute(_ context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	scope.Session.SetVariable(n.variable, scope.RenderString(n.value))

	return models.Advance(""), nil
}

// TagNode adds or removes a tag on the contact.
type TagNode struct {
	id     string
	tag    string
	remove bool
}

// NewTagNode creates a tag node handler.
func NewTagNode(id string, cfg map[string]any) (*TagNode, error) {
	tag, err := nodeconfig.String(cfg, "tag")
	if err != nil {
		return nil, err
	}

	action := nodeconfig.StringOr(cfg, "action", "add")
	if action != "add" && action != "remove" {
		return nil, fmt.Errorf("unknown tag action %q", action)
	}

	return &TagNode{id: id, tag: tag, remove: action == "remove"}, nil
}

func (n *TagNode) ID() string            { return n.id }
func (n *TagNode) Kind() models.NodeKind { return models.NodeKindTag }

func (n *TagNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	contact := scope.Contact
	if contact == nil {
		return models.Advance(""), nil
	}

	if n.remove {
		contact.RemoveTag(n.tag)
	} else {
		contact.AddTag(n.tag)
	}

	if err := scope.Contacts.SaveContact(ctx, contact); err != nil {
		return models.Outcome{}, err
	}

	return models.Advance(""), nil
}

// NotifyAdminNode sends a templated message to an explicitly configured
// recipient instead of the session's contact.
type NotifyAdminNode struct {
	id        string
	recipient string
	message   string
}

// NewNotifyAdminNode creates a notifyAdmin node handler.
func NewNotifyAdminNode(id string, cfg map[string]any) (*NotifyAdminNode, error) {
	recipient, err := nodeconfig.String(cfg, "recipient")
	if err != nil {
		return nil, err
	}

	message, err := nodeconfig.String(cfg, "message")
	if err != nil {
		return nil, err
	}

	return &NotifyAdminNode{id: id, recipient: recipient, message: message}, nil
}

func (n *NotifyAdminNode) ID() string            { return n.id }
func (n *NotifyAdminNode) Kind() models.NodeKind { return models.NodeKindNotifyAdmin }

func (n *NotifyAdminNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	status, err := scope.Sender.Send(ctx, n.id, models.OutboundMessage{
		ChannelInstance: scope.Session.ChannelInstanceID,
		Recipient:       n.recipient,
		Kind:            models.MessageKindText,
		Content:         scope.RenderString(n.message),
	})
	if err != nil {
		return models.Outcome{}, err
	}

	// An unreachable admin must not stall the contact's flow; failures
	// are recorded by the send path and the flow moves on.
	if status == protocol.SendPaused {
		return models.Suspend(models.SuspendPaused), nil
	}

	return models.Advance(""), nil
}

// PixelNode emits an analytics event with the session's context.
type PixelNode struct {
	id    string
	event string
	data  map[string]any
}

// NewPixelNode creates a pixel node handler.
func NewPixelNode(id string, cfg map[string]any) (*PixelNode, error) {
	event, err := nodeconfig.String(cfg, "event")
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if raw, ok := cfg["data"].(map[string]any); ok {
		data = raw
	}

	return &PixelNode{id: id, event: event, data: data}, nil
}

func (n *PixelNode) ID() string            { return n.id }
func (n *PixelNode) Kind() models.NodeKind { return models.NodeKindPixel }

func (n *PixelNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	payload := map[string]any{
		"session_id": scope.Session.ID,
		"flow_id":    scope.Session.FlowID,
		"contact_id": scope.Session.ContactID,
		"node_id":    n.id,
	}

	for k, v := range n.data {
		if s, ok := v.(string); ok {
			payload[k] = scope.RenderString(s)
		} else {
			payload[k] = v
		}
	}

	scope.Publish.Emit(ctx, n.event, payload)

	return models.Advance(""), nil
}

// CallNode requests a voice call to the contact through the gateway.
type CallNode struct {
	id      string
	message string
}

// NewCallNode creates a call node handler.
func NewCallNode(id string, cfg map[string]any) (*CallNode, error) {
	return &CallNode{id: id, message: nodeconfig.StringOr(cfg, "message", "")}, nil
}

func (n *CallNode) ID() string            { return n.id }
func (n *CallNode) Kind() models.NodeKind { return models.NodeKindCall }

func (n *CallNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	status, err := scope.Sender.Send(ctx, n.id, models.OutboundMessage{
		ChannelInstance: scope.Session.ChannelInstanceID,
		Recipient:       scope.Contact.Phone,
		Kind:            models.MessageKindCall,
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
	default:
		return models.Advance(""), nil
	}
}

// AINode generates free-form text from a prompt and stores it in a session
// variable. Generation failure degrades to an empty value, never aborting
// the flow.
type AINode struct {
	id       string
	prompt   string
	variable string
}

// NewAINode creates an ai node handler.
func NewAINode(id string, cfg map[string]any) (*AINode, error) {
	prompt, err := nodeconfig.String(cfg, "prompt")
	if err != nil {
		return nil, err
	}

	variable, err := nodeconfig.String(cfg, "variable")
	if err != nil {
		return nil, err
	}

	return &AINode{id: id, prompt: prompt, variable: variable}, nil
}

func (n *AINode) ID() string            { return n.id }
func (n *AINode) Kind() models.NodeKind { return models.NodeKindAI }

func (n *AINode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	history, err := scope.Messages.Recent(ctx, scope.Session.ID, generateHistoryLimit)
	if err != nil {
		history = nil
	}

	jc := models.JudgeContext{History: history}
	if scope.Contact != nil {
		jc.Tags = scope.Contact.Tags
	}

	generated, err := scope.Judge.Generate(ctx, scope.RenderString(n.prompt), jc)
	if err != nil {
		scope.Logger.Warn("ai generation degraded", "node_id", n.id, "error", err)

		generated = ""
	}

	scope.Session.SetVariable(n.variable, generated)

	return models.Advance(""), nil
}
