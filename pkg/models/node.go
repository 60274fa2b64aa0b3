// Package models defines the core domain models for conversational flow execution.
package models

// NodeKind identifies the behavior of a node in a flow graph. The set is
// closed: every kind has a registered handler and unknown kinds fail flow
// validation.
type NodeKind string

const (
	NodeKindStart             NodeKind = "start"
	NodeKindText              NodeKind = "text"
	NodeKindAIText            NodeKind = "aiText"
	NodeKindImage             NodeKind = "image"
	NodeKindAudio             NodeKind = "audio"
	NodeKindVideo             NodeKind = "video"
	NodeKindDocument          NodeKind = "document"
	NodeKindDelay             NodeKind = "delay"
	NodeKindWaitInput         NodeKind = "waitInput"
	NodeKindMenu              NodeKind = "menu"
	NodeKindCondition         NodeKind = "condition"
	NodeKindSetVariable       NodeKind = "setVariable"
	NodeKindTag               NodeKind = "tag"
	NodeKindNotifyAdmin       NodeKind = "notifyAdmin"
	NodeKindTransfer          NodeKind = "transfer"
	NodeKindEnd               NodeKind = "end"
	NodeKindAI                NodeKind = "ai"
	NodeKindWebhook           NodeKind = "webhook"
	NodeKindPixel             NodeKind = "pixel"
	NodeKindRandomizer        NodeKind = "randomizer"
	NodeKindPaymentIdentifier NodeKind = "paymentIdentifier"
	NodeKindSendPixKey        NodeKind = "sendPixKey"
	NodeKindSendCharge        NodeKind = "sendCharge"
	NodeKindCall              NodeKind = "call"
	NodeKindInteractiveBlock  NodeKind = "interactiveBlock"
	NodeKindIAConverter       NodeKind = "iaConverter"
)

// AllNodeKinds lists every known node kind, in a stable order.
func AllNodeKinds() []NodeKind {
	return []NodeKind{
		NodeKindStart, NodeKindText, NodeKindAIText, NodeKindImage,
		NodeKindAudio, NodeKindVideo, NodeKindDocument, NodeKindDelay,
		NodeKindWaitInput, NodeKindMenu, NodeKindCondition,
		NodeKindSetVariable, NodeKindTag, NodeKindNotifyAdmin,
		NodeKindTransfer, NodeKindEnd, NodeKindAI, NodeKindWebhook,
		NodeKindPixel, NodeKindRandomizer, NodeKindPaymentIdentifier,
		NodeKindSendPixKey, NodeKindSendCharge, NodeKindCall,
		NodeKindInteractiveBlock, NodeKindIAConverter,
	}
}

// Node represents one step in a flow graph. Config carries the kind-specific
// parameters and is decoded into a typed handler by the kind's factory.
type Node struct {
	ID        string         `json:"id"     validate:"required"`
	Kind      NodeKind       `json:"kind"   validate:"required"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// IsMessageKind reports whether executing this node emits a message to the
// contact. Message kinds are subject to the idempotency set and the
// pause-window gate.
func (n *Node) IsMessageKind() bool {
	switch n.Kind {
	case NodeKindText, NodeKindAIText, NodeKindImage, NodeKindAudio,
		NodeKindVideo, NodeKindDocument, NodeKindMenu, NodeKindTransfer,
		NodeKindSendPixKey, NodeKindSendCharge, NodeKindInteractiveBlock:
		return true
	default:
		return false
	}
}

// MediaKind maps a media node kind to its outbound message kind. The second
// return is false for non-media kinds.
func (n *Node) MediaKind() (MessageKind, bool) {
	switch n.Kind {
	case NodeKindImage:
		return MessageKindImage, true
	case NodeKindAudio:
		return MessageKindAudio, true
	case NodeKindVideo:
		return MessageKindVideo, true
	case NodeKindDocument:
		return MessageKindDocument, true
	default:
		return "", false
	}
}
