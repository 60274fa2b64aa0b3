package protocol

import (
	"context"

	"github.com/jornadaflow/jornada/pkg/models"
)

// Gateway delivers one message to one recipient through a chat provider. A
// delivery problem is reported in the receipt, not as an error: the error
// return is reserved for the transport being unreachable, and both map to a
// recorded send failure, never a panic through the dispatcher.
type Gateway interface {
	Send(ctx context.Context, msg models.OutboundMessage) (models.SendReceipt, error)
}

// Judge is the AI judgment service. Every method degrades to a conservative
// default on transport failure: false, a zero verdict, the original text,
// and the empty string respectively.
type Judge interface {
	// Judge answers a natural-language boolean criterion against the
	// conversational context. The service must answer with exactly one of
	// two tokens; any other answer evaluates to false.
	Judge(ctx context.Context, criterion string, jc models.JudgeContext) (bool, error)

	// ClassifyReceipt decides whether an attachment is a payment receipt
	// and extracts the recipient when it is.
	ClassifyReceipt(ctx context.Context, att models.Attachment) (models.ReceiptVerdict, error)

	// Paraphrase rewrites marketing copy, keeping the meaning.
	Paraphrase(ctx context.Context, text string) (string, error)

	// Generate produces free-form text for a prompt with conversational
	// context. Used by the generic ai node and the iaConverter loop.
	Generate(ctx context.Context, prompt string, jc models.JudgeContext) (string, error)
}
