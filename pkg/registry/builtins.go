package registry

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/nodes/action"
	"github.com/jornadaflow/jornada/pkg/nodes/aichat"
	"github.com/jornadaflow/jornada/pkg/nodes/condition"
	"github.com/jornadaflow/jornada/pkg/nodes/control"
	"github.com/jornadaflow/jornada/pkg/nodes/delay"
	"github.com/jornadaflow/jornada/pkg/nodes/message"
	"github.com/jornadaflow/jornada/pkg/nodes/payment"
	"github.com/jornadaflow/jornada/pkg/nodes/waitinput"
	"github.com/jornadaflow/jornada/pkg/protocol"
)

// RegisterBuiltins registers every node kind the interpreter ships with.
func (r *Registry) RegisterBuiltins() {
	r.Register(control.NewStartNodeFactory())
	r.Register(control.NewEndNodeFactory())
	r.Register(control.NewTransferNodeFactory())

	r.Register(message.NewTextNodeFactory())
	r.Register(message.NewAITextNodeFactory())
	r.Register(message.NewMediaNodeFactory(models.NodeKindImage, "Image"))
	r.Register(message.NewMediaNodeFactory(models.NodeKindAudio, "Audio"))
	r.Register(message.NewMediaNodeFactory(models.NodeKindVideo, "Video"))
	r.Register(message.NewMediaNodeFactory(models.NodeKindDocument, "Document"))
	r.Register(message.NewInteractiveNodeFactory())
	r.Register(message.NewPixKeyNodeFactory())
	r.Register(message.NewChargeNodeFactory())

	r.Register(waitinput.NewWaitInputNodeFactory())
	r.Register(waitinput.NewMenuNodeFactory())

	r.Register(condition.NewConditionNodeFactory())
	r.Register(condition.NewRandomizerNodeFactory())

	r.Register(delay.NewDelayNodeFactory())
	r.Register(payment.NewPaymentNodeFactory())
	r.Register(aichat.NewConverterNodeFactory())

	r.Register(action.NewSetVariableNodeFactory())
	r.Register(action.NewTagNodeFactory())
	r.Register(action.NewNotifyAdminNodeFactory())
	r.Register(action.NewWebhookNodeFactory())
	r.Register(action.NewPixelNodeFactory())
	r.Register(action.NewCallNodeFactory())
	r.Register(action.NewAINodeFactory())
}

// Factories returns the registered factories for schema listing.
func (r *Registry) Factories() []protocol.NodeFactory {
	out := make([]protocol.NodeFactory, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f)
	}

	return out
}
