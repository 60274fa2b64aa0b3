package models

import "time"

// MessageKind classifies a chat message payload.
type MessageKind string

const (
	MessageKindText     MessageKind = "text"
	MessageKindImage    MessageKind = "image"
	MessageKindAudio    MessageKind = "audio"
	MessageKindVideo    MessageKind = "video"
	MessageKindDocument MessageKind = "document"
	MessageKindCall     MessageKind = "call"
)

// IsAttachment reports whether the kind can carry a payment receipt worth
// classifying.
func (k MessageKind) IsAttachment() bool {
	return k == MessageKindImage || k == MessageKindDocument
}

// InboundMessage is one message received from a contact, logged so the
// payment sub-machine and the AI judge can inspect recent history.
type InboundMessage struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"session_id"`
	ContactID  string      `json:"contact_id"`
	Kind       MessageKind `json:"kind"`
	Text       string      `json:"text,omitempty"`
	MediaRef   string      `json:"media_ref,omitempty"`
	ReceivedAt time.Time   `json:"received_at"`
}

// OutboundMessage is one message to deliver through the messaging gateway.
type OutboundMessage struct {
	ChannelInstance string        `json:"channel_instance"`
	Recipient       string        `json:"recipient"`
	Kind            MessageKind   `json:"kind"`
	Content         string        `json:"content,omitempty"`
	MediaRef        string        `json:"media_ref,omitempty"`
	ReplyToID       string        `json:"reply_to_id,omitempty"`
	TypingDelay     time.Duration `json:"typing_delay,omitempty"`
}

// SendReceipt is the gateway's answer to a send. A not-ok receipt is a
// recorded failure, never a panic through the dispatcher.
type SendReceipt struct {
	OK              bool   `json:"ok"`
	RemoteMessageID string `json:"remote_message_id,omitempty"`
	ErrorDetails    string `json:"error_details,omitempty"`
}

// Attachment is a media reference handed to the AI judgment service for
// receipt classification.
type Attachment struct {
	Kind     MessageKind `json:"kind"`
	MediaRef string      `json:"media_ref"`
	Caption  string      `json:"caption,omitempty"`
}

// ReceiptVerdict is the AI judgment service's classification of an
// attachment as a payment receipt.
type ReceiptVerdict struct {
	IsReceipt     bool    `json:"is_receipt"`
	Confidence    float64 `json:"confidence"`
	RecipientName string  `json:"recipient_name,omitempty"`
	RecipientID   string  `json:"recipient_id,omitempty"`
}

// JudgeContext is the conversational context handed to the AI judgment
// service when evaluating a natural-language condition.
type JudgeContext struct {
	History       []InboundMessage `json:"history,omitempty"`
	KnowledgeBase string           `json:"knowledge_base,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
}
