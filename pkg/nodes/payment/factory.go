package payment

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// PaymentNodeFactory creates PaymentNode instances.
type PaymentNodeFactory struct{}

func NewPaymentNodeFactory() protocol.NodeFactory { return &PaymentNodeFactory{} }

func (f *PaymentNodeFactory) Create(id string, config map[string]any) (protocol.Node, error) {
	return NewPaymentNode(id, config)
}

func (f *PaymentNodeFactory) Kind() models.NodeKind { return models.NodeKindPaymentIdentifier }
func (f *PaymentNodeFactory) Name() string          { return "Payment Identifier" }

func (f *PaymentNodeFactory) Description() string {
	return "Watches inbound messages for a valid payment receipt against an attempt budget"
}

func (f *PaymentNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"max_attempts": map[string]any{
				"type":        "number",
				"description": "Inbound messages of any kind consumed before routing notPaid",
				"default":     defaultMaxAttempts,
				"minimum":     1,
			},
			"no_response_grace": map[string]any{
				"type":        "number",
				"description": "Seconds of total silence before routing noResponse. Zero disables the grace timer",
				"minimum":     0,
			},
			"allowed_recipients": map[string]any{
				"type":        "array",
				"description": "Registered payees. When set, a receipt naming nobody on the list is a failed attempt",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":       map[string]any{"type": "string"},
						"identifier": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
