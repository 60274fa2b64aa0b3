package aichat

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// ConverterNodeFactory creates ConverterNode instances.
type ConverterNodeFactory struct{}

func NewConverterNodeFactory() protocol.NodeFactory { return &ConverterNodeFactory{} }

func (f *ConverterNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewConverterNode(id, config)
}

func (f *ConverterNodeFactory) Kind() models.NodeKind { return models.NodeKindIAConverter }
func (f *ConverterNodeFactory) Name() string          { return "AI Converter" }

func (f *ConverterNodeFactory) Description() string {
	return "Holds an open-ended AI dialogue until an exit keyword or the turn budget ends it"
}

func (f *ConverterNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "System prompt driving the dialogue. Supports {{variable}} placeholders",
			},
			"exit_keywords": map[string]any{
				"type":        "array",
				"description": "Replies containing any of these end the dialogue",
				"items":       map[string]any{"type": "string"},
			},
			"max_turns": map[string]any{
				"type":    "number",
				"default": defaultMaxTurns,
				"minimum": 1,
			},
			"variable": map[string]any{
				"type":        "string",
				"description": "Session variable the contact's last reply is stored into",
			},
		},
		"required": []string{"prompt"},
	}
}
