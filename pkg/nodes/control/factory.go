package control

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// StartNodeFactory creates StartNode instances.
type StartNodeFactory struct{}

func NewStartNodeFactory() protocol.NodeFactory { return &StartNodeFactory{} }

func (f *StartNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewStartNode(id, config)
}

func (f *StartNodeFactory) Kind() models.NodeKind { return models.NodeKindStart }
func (f *StartNodeFactory) Name() string          { return "Start" }
func (f *StartNodeFactory) Description() string   { return "Flow entry point" }

func (f *StartNodeFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

// EndNodeFactory creates EndNode instances.
type EndNodeFactory struct{}

func NewEndNodeFactory() protocol.NodeFactory { return &EndNodeFactory{} }

func (f *EndNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewEndNode(id, config)
}

func (f *EndNodeFactory) Kind() models.NodeKind { return models.NodeKindEnd }
func (f *EndNodeFactory) Name() string          { return "End" }
func (f *EndNodeFactory) Description() string   { return "Completes the session" }

func (f *EndNodeFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

// TransferNodeFactory creates TransferNode instances.
type TransferNodeFactory struct{}

func NewTransferNodeFactory() protocol.NodeFactory { return &TransferNodeFactory{} }

func (f *TransferNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewTransferNode(id, config)
}

func (f *TransferNodeFactory) Kind() models.NodeKind { return models.NodeKindTransfer }
func (f *TransferNodeFactory) Name() string          { return "Transfer" }

func (f *TransferNodeFactory) Description() string {
	return "Hands the conversation to a human operator and completes the session"
}

func (f *TransferNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Optional handoff message sent before completing",
			},
		},
	}
}
