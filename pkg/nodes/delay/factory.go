package delay

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// DelayNodeFactory creates DelayNode instances.
type DelayNodeFactory struct{}

func NewDelayNodeFactory() protocol.NodeFactory { return &DelayNodeFactory{} }

func (f *DelayNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewDelayNode(id, config)
}

func (f *DelayNodeFactory) Kind() models.NodeKind { return models.NodeKindDelay }
func (f *DelayNodeFactory) Name() string          { return "Delay" }

func (f *DelayNodeFactory) Description() string {
	return "Pauses the flow for a duration, inline when short and via the timer queue when long"
}

func (f *DelayNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "number",
				"description": "Seconds to wait before advancing",
				"minimum":     0,
			},
		},
		"required": []string{"duration"},
	}
}
