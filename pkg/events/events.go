// Package events defines the domain events published on the session
// lifecycle: invocation requests consumed by workers, and notifications
// emitted while flows execute.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jornadaflow/jornada/pkg/models"
)

type EventType string

// Topic is the single Kafka topic all session events flow through,
// partitioned by session id so one session's events stay ordered.
const Topic = "jornada.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// InvocationRequestedEvent asks a worker to run the interpreter once.
	InvocationRequestedEvent EventType = "session.invocation.requested"

	// Session lifecycle events.
	SessionStartedEvent   EventType = "session.started"
	SessionCompletedEvent EventType = "session.completed"

	// Messaging events.
	MessageReceivedEvent EventType = "message.received"
	MessageSentEvent     EventType = "message.sent"

	// ChannelDisconnectedEvent flags a channel whose sends are failing
	// with disconnect phrasing.
	ChannelDisconnectedEvent EventType = "channel.disconnected"

	// FlowPublishedEvent announces a new immutable flow snapshot.
	FlowPublishedEvent EventType = "flow.published"

	// NodeEmittedEvent carries node-configured analytics emissions
	// (pixel nodes) under their authored event name.
	NodeEmittedEvent EventType = "node.emitted"
)

// BaseEvent carries the fields every event shares.
type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates the shared envelope for an event.
func NewBaseEvent(eventType EventType, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}

// InvocationRequested asks a worker to run one interpreter invocation. The
// API publishes it for inbound messages and manual triggers; the timer
// dispatcher publishes it for due wake-ups.
type InvocationRequested struct {
	BaseEvent

	Invocation models.Invocation `json:"invocation"`
}

func (e InvocationRequested) GetType() EventType {
	return InvocationRequestedEvent
}

// SessionStarted announces a new session entering its flow.
type SessionStarted struct {
	BaseEvent

	FlowID    string `json:"flow_id"`
	ContactID string `json:"contact_id"`
}

func (e SessionStarted) GetType() EventType {
	return SessionStartedEvent
}

// SessionCompleted announces a session reaching a terminal node.
type SessionCompleted struct {
	BaseEvent

	FlowID    string `json:"flow_id"`
	ContactID string `json:"contact_id"`
	Reason    string `json:"reason,omitempty"`
}

func (e SessionCompleted) GetType() EventType {
	return SessionCompletedEvent
}

// MessageReceived records an inbound contact message entering a session.
type MessageReceived struct {
	BaseEvent

	ContactID string `json:"contact_id"`
	Kind      string `json:"kind"`
}

func (e MessageReceived) GetType() EventType {
	return MessageReceivedEvent
}

// MessageSent records a delivered outbound message.
type MessageSent struct {
	BaseEvent

	SendKey  string `json:"send_key"`
	Kind     string `json:"kind"`
	RemoteID string `json:"remote_id,omitempty"`
}

func (e MessageSent) GetType() EventType {
	return MessageSentEvent
}

// ChannelDisconnected flags a channel instance whose gateway rejected a
// send with disconnect phrasing.
type ChannelDisconnected struct {
	BaseEvent

	ChannelInstanceID string `json:"channel_instance_id"`
	Reason            string `json:"reason"`
}

func (e ChannelDisconnected) GetType() EventType {
	return ChannelDisconnectedEvent
}

// FlowPublished announces a new immutable snapshot of a flow.
type FlowPublished struct {
	BaseEvent

	FlowID     string `json:"flow_id"`
	SnapshotID string `json:"snapshot_id"`
}

func (e FlowPublished) GetType() EventType {
	return FlowPublishedEvent
}

// NodeEmitted carries a node-configured emission, typically an analytics
// pixel, under the event name the flow author chose.
type NodeEmitted struct {
	BaseEvent

	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

func (e NodeEmitted) GetType() EventType {
	return NodeEmittedEvent
}
