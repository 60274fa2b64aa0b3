package waitinput

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// WaitInputNodeFactory creates WaitInputNode instances.
type WaitInputNodeFactory struct{}

func NewWaitInputNodeFactory() protocol.NodeFactory { return &WaitInputNodeFactory{} }

func (f *WaitInputNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewWaitInputNode(id, config)
}

func (f *WaitInputNodeFactory) Kind() models.NodeKind { return models.NodeKindWaitInput }
func (f *WaitInputNodeFactory) Name() string          { return "Wait for Input" }

func (f *WaitInputNodeFactory) Description() string {
	return "Parks the session until the contact replies, with optional timeout and follow-up deadlines"
}

func (f *WaitInputNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"variable": map[string]any{
				"type":        "string",
				"description": "Session variable the reply is stored into",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Seconds without a reply before the timeout edge is taken",
				"minimum":     0,
			},
			"follow_up": map[string]any{
				"type":        "number",
				"description": "Seconds without a reply before the follow-up branch fires. Must be earlier than the timeout to have any effect",
				"minimum":     0,
			},
		},
	}
}

// MenuNodeFactory creates MenuNode instances.
type MenuNodeFactory struct{}

func NewMenuNodeFactory() protocol.NodeFactory { return &MenuNodeFactory{} }

func (f *MenuNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewMenuNode(id, config)
}

func (f *MenuNodeFactory) Kind() models.NodeKind { return models.NodeKindMenu }
func (f *MenuNodeFactory) Name() string          { return "Menu" }

func (f *MenuNodeFactory) Description() string {
	return "Sends a numbered list of choices and waits for the contact to pick one"
}

func (f *MenuNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Header text shown above the options",
			},
			"options": map[string]any{
				"type":        "array",
				"description": "Option labels, matched against the reply and the outgoing edge labels",
				"items":       map[string]any{"type": "string"},
				"minItems":    1,
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Session variable the picked option is stored into",
			},
			"timeout": map[string]any{
				"type":    "number",
				"minimum": 0,
			},
			"follow_up": map[string]any{
				"type":    "number",
				"minimum": 0,
			},
		},
		"required": []string{"text", "options"},
	}
}
