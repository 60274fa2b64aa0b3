// Package message provides the message-emitting node handlers: text,
// AI-paraphrased text, media, interactive blocks, PIX key and charge
// messages. All sends go through the dispatcher's send path, which applies
// the pause-window gate and the idempotency set.
package message

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	nodeconfig "github.com/jornadaflow/jornada/pkg/nodes/config"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// sendAndAdvance routes one outbound message through the dispatcher's send
// path and maps the send status onto a node outcome.
func sendAndAdvance(ctx context.Context, scope *protocol.ExecutionScope, nodeID string, msg models.OutboundMessage) (models.Outcome, error) {
	if msg.ChannelInstance == "" {
		msg.ChannelInstance = scope.Session.ChannelInstanceID
	}

	if msg.Recipient == "" {
		msg.Recipient = scope.Contact.Phone
	}

	status, err := scope.Sender.Send(ctx, nodeID, msg)
	if err != nil {
		return models.Outcome{}, err
	}

	switch status {
	case protocol.SendDelivered, protocol.SendSkippedDuplicate:
		return models.Advance(""), nil
	case protocol.SendPaused:
		return models.Suspend(models.SuspendPaused), nil
	default:
		return models.Suspend(models.SuspendSendFailure), nil
	}
}

// TextNode sends a templated text message.
type TextNode struct {
	id          string
	content     string
	typingDelay int // milliseconds
}

// NewTextNode creates a text node handler.
func NewTextNode(id string, cfg map[string]any) (*TextNode, error) {
	content, err := nodeconfig.String(cfg, "content")
	if err != nil {
		return nil, err
	}

	return &TextNode{
		id:          id,
		content:     content,
		typingDelay: nodeconfig.IntOr(cfg, "typing_delay_ms", 0),
	}, nil
}

func (n *TextNode) ID() string            { return n.id }
func (n *TextNode) Kind() models.NodeKind { return models.NodeKindText }

func (n *TextNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	return sendAndAdvance(ctx, scope, n.id, models.OutboundMessage{
		Kind:        models.MessageKindText,
		Content:     scope.RenderString(n.content),
		TypingDelay: typingDelay(n.typingDelay),
	})
}

// AITextNode sends a text message paraphrased by the AI service. On
// degradation the original text is sent unchanged.
type AITextNode struct {
	id      string
	content string
}

// NewAITextNode creates an aiText node handler.
func NewAITextNode(id string, cfg map[string]any) (*AITextNode, error) {
	content, err := nodeconfig.String(cfg, "content")
	if err != nil {
		return nil, err
	}

	return &AITextNode{id: id, content: content}, nil
}

func (n *AITextNode) ID() string            { return n.id }
func (n *AITextNode) Kind() models.NodeKind { return models.NodeKindAIText }

func (n *AITextNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	content := scope.RenderString(n.content)

	// Skip the paraphrase call entirely when the send already happened in
	// a previous invocation.
	if !scope.Session.HasSent(n.id) {
		paraphrased, err := scope.Judge.Paraphrase(ctx, content)
		if err == nil && paraphrased != "" {
			content = paraphrased
		}
	}

	return sendAndAdvance(ctx, scope, n.id, models.OutboundMessage{
		Kind:    models.MessageKindText,
		Content: content,
	})
}

// MediaNode sends an image, audio, video or document with an optional
// caption.
type MediaNode struct {
	id          string
	kind        models.NodeKind
	messageKind models.MessageKind
	mediaRef    string
	caption     string
}

// NewMediaNode creates a media node handler for the given kind.
func NewMediaNode(kind models.NodeKind) func(string, map[string]any) (*MediaNode, error) {
	return func(id string, cfg map[string]any) (*MediaNode, error) {
		messageKind, ok := (&models.Node{Kind: kind}).MediaKind()
		if !ok {
			return nil, fmt.Errorf("%q is not a media node kind", kind)
		}

		mediaRef, err := nodeconfig.String(cfg, "media_ref")
		if err != nil {
			return nil, err
		}

		return &MediaNode{
			id:          id,
			kind:        kind,
			messageKind: messageKind,
			mediaRef:    mediaRef,
			caption:     nodeconfig.StringOr(cfg, "caption", ""),
		}, nil
	}
}

func (n *MediaNode) ID() string            { return n.id }
func (n *MediaNode) Kind() models.NodeKind { return n.kind }

func (n *MediaNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	return sendAndAdvance(ctx, scope, n.id, models.OutboundMessage{
		Kind:     n.messageKind,
		Content:  scope.RenderString(n.caption),
		MediaRef: n.mediaRef,
	})
}

// InteractiveNode sends an interactive block (buttons, list or poll),
// rendered as numbered options for providers without native support.
type InteractiveNode struct {
	id      string
	mode    string
	text    string
	options []string
}

// NewInteractiveNode creates an interactiveBlock node handler.
func NewInteractiveNode(id string, cfg map[string]any) (*InteractiveNode, error) {
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

	return &InteractiveNode{
		id:      id,
		mode:    nodeconfig.StringOr(cfg, "mode", "buttons"),
		text:    text,
		options: options,
	}, nil
}

func (n *InteractiveNode) ID() string            { return n.id }
func (n *InteractiveNode) Kind() models.NodeKind { return models.NodeKindInteractiveBlock }

func (n *InteractiveNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	var b strings.Builder

	b.WriteString(scope.RenderString(n.text))

	for i, option := range n.options {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, scope.RenderString(option)))
	}

	return sendAndAdvance(ctx, scope, n.id, models.OutboundMessage{
		Kind:    models.MessageKindText,
		Content: b.String(),
	})
}

// PixKeyNode sends the configured PIX key with an optional lead-in message.
type PixKeyNode struct {
	id      string
	pixKey  string
	message string
}

// NewPixKeyNode creates a sendPixKey node handler.
func NewPixKeyNode(id string, cfg map[string]any) (*PixKeyNode, error) {
	pixKey, err := nodeconfig.String(cfg, "pix_key")
	if err != nil {
		return nil, err
	}

	return &PixKeyNode{
		id:      id,
		pixKey:  pixKey,
		message: nodeconfig.StringOr(cfg, "message", ""),
	}, nil
}

func (n *PixKeyNode) ID() string            { return n.id }
func (n *PixKeyNode) Kind() models.NodeKind { return models.NodeKindSendPixKey }

func (n *PixKeyNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	content := n.pixKey
	if n.message != "" {
		content = scope.RenderString(n.message) + "\n" + n.pixKey
	}

	return sendAndAdvance(ctx, scope, n.id, models.OutboundMessage{
		Kind:    models.MessageKindText,
		Content: content,
	})
}

// ChargeNode sends a payment charge message with the formatted amount.
type ChargeNode struct {
	id          string
	amount      float64
	description string
}

// NewChargeNode creates a sendCharge node handler.
func NewChargeNode(id string, cfg map[string]any) (*ChargeNode, error) {
	amount := nodeconfig.FloatOr(cfg, "amount", 0)
	if amount <= 0 {
		return nil, fmt.Errorf("%w 'amount'", nodeconfig.ErrMissing)
	}

	return &ChargeNode{
		id:          id,
		amount:      amount,
		description: nodeconfig.StringOr(cfg, "description", ""),
	}, nil
}

func (n *ChargeNode) ID() string            { return n.id }
func (n *ChargeNode) Kind() models.NodeKind { return models.NodeKindSendCharge }

func (n *ChargeNode) Execute(ctx context.Context, scope *protocol.ExecutionScope) (models.Outcome, error) {
	content := fmt.Sprintf("R$ %.2f", n.amount)
	if n.description != "" {
		content = scope.RenderString(n.description) + "\n" + content
	}

	return sendAndAdvance(ctx, scope, n.id, models.OutboundMessage{
		Kind:    models.MessageKindText,
		Content: content,
	})
}

func typingDelay(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
