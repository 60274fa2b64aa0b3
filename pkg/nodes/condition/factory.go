package condition

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// ConditionNodeFactory creates ConditionNode instances.
type ConditionNodeFactory struct{}

func NewConditionNodeFactory() protocol.NodeFactory { return &ConditionNodeFactory{} }

func (f *ConditionNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewConditionNode(id, config)
}

func (f *ConditionNodeFactory) Kind() models.NodeKind { return models.NodeKindCondition }
func (f *ConditionNodeFactory) Name() string          { return "Condition" }

func (f *ConditionNodeFactory) Description() string {
	return "Branches along the yes or no edge by evaluating variable, tag and AI clauses"
}

func (f *ConditionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"clauses": map[string]any{
				"type":        "array",
				"description": "Clauses combined by the combinator",
				"minItems":    1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"kind": map[string]any{
							"type": "string",
							"enum": []string{"variable", "tag", "ai"},
						},
						"variable": map[string]any{"type": "string"},
						"operator": map[string]any{
							"type": "string",
							"enum": []string{
								"equals", "not_equals", "contains", "not_contains",
								"starts_with", "ends_with", "greater_than", "less_than",
								"exists", "not_exists", "has", "not_has",
							},
						},
						"value":          map[string]any{"type": "string"},
						"tag":            map[string]any{"type": "string"},
						"criterion":      map[string]any{"type": "string"},
						"knowledge_base": map[string]any{"type": "string"},
					},
				},
			},
			"combinator": map[string]any{
				"type":    "string",
				"enum":    []string{"and", "or"},
				"default": "and",
			},
		},
		"required": []string{"clauses"},
	}
}

// RandomizerNodeFactory creates RandomizerNode instances.
type RandomizerNodeFactory struct{}

func NewRandomizerNodeFactory() protocol.NodeFactory { return &RandomizerNodeFactory{} }

func (f *RandomizerNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewRandomizerNode(id, config)
}

func (f *RandomizerNodeFactory) Kind() models.NodeKind { return models.NodeKindRandomizer }
func (f *RandomizerNodeFactory) Name() string          { return "Randomizer" }

func (f *RandomizerNodeFactory) Description() string {
	return "Advances along one of its labeled edges by weighted random draw"
}

func (f *RandomizerNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"splits": map[string]any{
				"type":        "array",
				"description": "Weighted branches. Weights are normalized over their sum",
				"minItems":    1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"label":  map[string]any{"type": "string"},
						"weight": map[string]any{"type": "number", "minimum": 0},
					},
					"required": []string{"label"},
				},
			},
		},
		"required": []string{"splits"},
	}
}
