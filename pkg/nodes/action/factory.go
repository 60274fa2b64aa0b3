package action

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// SetVariableNodeFactory creates SetVariableNode instances.
type SetVariableNodeFactory struct{}

func NewSetVariableNodeFactory() protocol.NodeFactory { return &SetVariableNodeFactory{} }

func (f *SetVariableNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewSetVariableNode(id, config)
}

func (f *SetVariableNodeFactory) Kind() models.NodeKind { return models.NodeKindSetVariable }
func (f *SetVariableNodeFactory) Name() string          { return "Set Variable" }

func (f *SetVariableNodeFactory) Description() string {
	return "Writes a templated value into a session variable"
}

func (f *SetVariableNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"variable": map[string]any{"type": "string"},
			"value": map[string]any{
				"type":        "string",
				"description": "Value to store. Supports {{variable}} placeholders",
			},
		},
		"required": []string{"variable"},
	}
}

// TagNodeFactory creates TagNode instances.
type TagNodeFactory struct{}

func NewTagNodeFactory() protocol.NodeFactory { return &TagNodeFactory{} }

func (f *TagNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewTagNode(id, config)
}

func (f *TagNodeFactory) Kind() models.NodeKind { return models.NodeKindTag }
func (f *TagNodeFactory) Name() string          { return "Tag Contact" }

func (f *TagNodeFactory) Description() string {
	return "Adds or removes a tag on the contact"
}

func (f *TagNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tag": map[string]any{"type": "string"},
			"action": map[string]any{
				"type":    "string",
				"enum":    []string{"add", "remove"},
				"default": "add",
			},
		},
		"required": []string{"tag"},
	}
}

// NotifyAdminNodeFactory creates NotifyAdminNode instances.
type NotifyAdminNodeFactory struct{}

func NewNotifyAdminNodeFactory() protocol.NodeFactory { return &NotifyAdminNodeFactory{} }

func (f *NotifyAdminNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewNotifyAdminNode(id, config)
}

func (f *NotifyAdminNodeFactory) Kind() models.NodeKind { return models.NodeKindNotifyAdmin }
func (f *NotifyAdminNodeFactory) Name() string          { return "Notify Admin" }

func (f *NotifyAdminNodeFactory) Description() string {
	return "Sends a templated message to a configured operator number"
}

func (f *NotifyAdminNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipient": map[string]any{
				"type":        "string",
				"description": "Operator phone number the notification goes to",
			},
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"recipient", "message"},
	}
}

// WebhookNodeFactory creates WebhookNode instances.
type WebhookNodeFactory struct{}

func NewWebhookNodeFactory() protocol.NodeFactory { return &WebhookNodeFactory{} }

func (f *WebhookNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewWebhookNode(id, config)
}

func (f *WebhookNodeFactory) Kind() models.NodeKind { return models.NodeKindWebhook }
func (f *WebhookNodeFactory) Name() string          { return "Webhook" }

func (f *WebhookNodeFactory) Description() string {
	return "Calls an external HTTP endpoint, degrading to a recorded error on failure"
}

func (f *WebhookNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Endpoint URL. Supports {{variable}} placeholders",
			},
			"method": map[string]any{
				"type":    "string",
				"enum":    []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
				"default": "POST",
			},
			"headers": map[string]any{"type": "object"},
			"body":    map[string]any{"type": "string"},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds",
				"default":     30,
				"minimum":     1,
			},
		},
		"required": []string{"url"},
	}
}

// PixelNodeFactory creates PixelNode instances.
type PixelNodeFactory struct{}

func NewPixelNodeFactory() protocol.NodeFactory { return &PixelNodeFactory{} }

func (f *PixelNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewPixelNode(id, config)
}

func (f *PixelNodeFactory) Kind() models.NodeKind { return models.NodeKindPixel }
func (f *PixelNodeFactory) Name() string          { return "Analytics Pixel" }

func (f *PixelNodeFactory) Description() string {
	return "Emits an analytics event with the session's context"
}

func (f *PixelNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"event": map[string]any{"type": "string"},
			"data": map[string]any{
				"type":        "object",
				"description": "Extra event fields. String values support {{variable}} placeholders",
			},
		},
		"required": []string{"event"},
	}
}

// CallNodeFactory creates CallNode instances.
type CallNodeFactory struct{}

func NewCallNodeFactory() protocol.NodeFactory { return &CallNodeFactory{} }

func (f *CallNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewCallNode(id, config)
}

func (f *CallNodeFactory) Kind() models.NodeKind { return models.NodeKindCall }
func (f *CallNodeFactory) Name() string          { return "Voice Call" }

func (f *CallNodeFactory) Description() string {
	return "Requests a voice call to the contact through the gateway"
}

func (f *CallNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
	}
}

// AINodeFactory creates AINode instances.
type AINodeFactory struct{}

func NewAINodeFactory() protocol.NodeFactory { return &AINodeFactory{} }

func (f *AINodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewAINode(id, config)
}

func (f *AINodeFactory) Kind() models.NodeKind { return models.NodeKindAI }
func (f *AINodeFactory) Name() string          { return "AI Generation" }

func (f *AINodeFactory) Description() string {
	return "Generates text from a prompt and stores it in a session variable"
}

func (f *AINodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Generation prompt. Supports {{variable}} placeholders",
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Session variable the generated text is stored into",
			},
		},
		"required": []string{"prompt", "variable"},
	}
}
