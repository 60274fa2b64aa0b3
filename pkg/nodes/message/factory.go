package message

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// TextNodeFactory creates TextNode instances.
type TextNodeFactory struct{}

func NewTextNodeFactory() protocol.NodeFactory { return &TextNodeFactory{} }

func (f *TextNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewTextNode(id, config)
}

func (f *TextNodeFactory) Kind() models.NodeKind { return models.NodeKindText }
func (f *TextNodeFactory) Name() string          { return "Text Message" }

func (f *TextNodeFactory) Description() string {
	return "Sends a text message with session variables substituted"
}

func (f *TextNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "Message text. Supports {{variable}} placeholders",
			},
			"typing_delay_ms": map[string]any{
				"type":        "number",
				"description": "Simulated typing time before the message is sent, in milliseconds",
				"minimum":     0,
			},
		},
		"required": []string{"content"},
	}
}

// AITextNodeFactory creates AITextNode instances.
type AITextNodeFactory struct{}

func NewAITextNodeFactory() protocol.NodeFactory { return &AITextNodeFactory{} }

func (f *AITextNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewAITextNode(id, config)
}

func (f *AITextNodeFactory) Kind() models.NodeKind { return models.NodeKindAIText }
func (f *AITextNodeFactory) Name() string          { return "AI Text Message" }

func (f *AITextNodeFactory) Description() string {
	return "Sends a base text rephrased by the AI provider, falling back to the base text on error"
}

func (f *AITextNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "Base text the AI provider paraphrases. Supports {{variable}} placeholders",
			},
			"typing_delay_ms": map[string]any{
				"type":    "number",
				"minimum": 0,
			},
		},
		"required": []string{"content"},
	}
}

// MediaNodeFactory creates MediaNode instances for one media kind.
type MediaNodeFactory struct {
	kind models.NodeKind
	name string
}

func NewMediaNodeFactory(kind models.NodeKind, name string) protocol.NodeFactory {
	return &MediaNodeFactory{kind: kind, name: name}
}

func (f *MediaNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewMediaNode(f.kind)(id, config)
}

func (f *MediaNodeFactory) Kind() models.NodeKind { return f.kind }
func (f *MediaNodeFactory) Name() string          { return f.name }

func (f *MediaNodeFactory) Description() string {
	return "Sends a media attachment with an optional caption"
}

func (f *MediaNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"media_ref": map[string]any{
				"type":        "string",
				"description": "URL or storage reference of the media to send",
			},
			"caption": map[string]any{
				"type":        "string",
				"description": "Optional caption. Supports {{variable}} placeholders",
			},
		},
		"required": []string{"media_ref"},
	}
}

// InteractiveNodeFactory creates InteractiveNode instances.
type InteractiveNodeFactory struct{}

func NewInteractiveNodeFactory() protocol.NodeFactory { return &InteractiveNodeFactory{} }

func (f *InteractiveNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewInteractiveNode(id, config)
}

func (f *InteractiveNodeFactory) Kind() models.NodeKind { return models.NodeKindInteractiveBlock }
func (f *InteractiveNodeFactory) Name() string          { return "Interactive Block" }

func (f *InteractiveNodeFactory) Description() string {
	return "Sends a text with a numbered list of tappable options"
}

func (f *InteractiveNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Header text shown above the options",
			},
			"options": map[string]any{
				"type":        "array",
				"description": "Option labels in display order",
				"items":       map[string]any{"type": "string"},
				"minItems":    1,
			},
		},
		"required": []string{"text", "options"},
	}
}

// PixKeyNodeFactory creates PixKeyNode instances.
type PixKeyNodeFactory struct{}

func NewPixKeyNodeFactory() protocol.NodeFactory { return &PixKeyNodeFactory{} }

func (f *PixKeyNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewPixKeyNode(id, config)
}

func (f *PixKeyNodeFactory) Kind() models.NodeKind { return models.NodeKindSendPixKey }
func (f *PixKeyNodeFactory) Name() string          { return "Send Pix Key" }

func (f *PixKeyNodeFactory) Description() string {
	return "Sends an introduction message followed by the pix key as a copyable message"
}

func (f *PixKeyNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pix_key": map[string]any{
				"type":        "string",
				"description": "Pix key sent as its own message so the contact can copy it",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Optional introduction text sent before the key",
			},
		},
		"required": []string{"pix_key"},
	}
}

// ChargeNodeFactory creates ChargeNode instances.
type ChargeNodeFactory struct{}

func NewChargeNodeFactory() protocol.NodeFactory { return &ChargeNodeFactory{} }

func (f *ChargeNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewChargeNode(id, config)
}

func (f *ChargeNodeFactory) Kind() models.NodeKind { return models.NodeKindSendCharge }
func (f *ChargeNodeFactory) Name() string          { return "Send Charge" }

func (f *ChargeNodeFactory) Description() string {
	return "Sends a charge message with the formatted amount and description"
}

func (f *ChargeNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount": map[string]any{
				"type":        "number",
				"description": "Charge amount in BRL",
				"minimum":     0,
			},
			"description": map[string]any{
				"type":        "string",
				"description": "What the charge is for",
			},
		},
		"required": []string{"amount"},
	}
}
