package eventbus

import (
	"context"
	"log/slog"

	"github.com/jornadaflow/jornada/pkg/events"
)

// Sink adapts the event bus to the fire-and-forget emission interface node
// handlers use. Well-known emission names become their typed events;
// anything else, typically an authored pixel name, is wrapped in a
// NodeEmitted envelope. Publish failures are logged, never propagated: an
// analytics outage must not stall a conversation.
type Sink struct {
	bus    EventPublisher
	logger *slog.Logger
}

// NewSink creates a bus-backed emission sink.
func NewSink(bus EventPublisher, logger *slog.Logger) *Sink {
	return &Sink{bus: bus, logger: logger}
}

func (s *Sink) Emit(ctx context.Context, eventType string, payload map[string]any) {
	sessionID, _ := payload["session_id"].(string)

	event := s.build(eventType, sessionID, payload)

	if err := s.bus.Publish(ctx, sessionID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", eventType, "session_id", sessionID, "error", err)
	}
}

func (s *Sink) build(eventType, sessionID string, payload map[string]any) Event {
	str := func(key string) string {
		v, _ := payload[key].(string)

		return v
	}

	switch events.EventType(eventType) {
	case events.SessionStartedEvent:
		return events.SessionStarted{
			BaseEvent: events.NewBaseEvent(events.SessionStartedEvent, sessionID),
			FlowID:    str("flow_id"),
			ContactID: str("contact_id"),
		}
	case events.SessionCompletedEvent:
		return events.SessionCompleted{
			BaseEvent: events.NewBaseEvent(events.SessionCompletedEvent, sessionID),
			FlowID:    str("flow_id"),
			ContactID: str("contact_id"),
			Reason:    str("reason"),
		}
	case events.MessageReceivedEvent:
		return events.MessageReceived{
			BaseEvent: events.NewBaseEvent(events.MessageReceivedEvent, sessionID),
			ContactID: str("contact_id"),
			Kind:      str("kind"),
		}
	case events.MessageSentEvent:
		return events.MessageSent{
			BaseEvent: events.NewBaseEvent(events.MessageSentEvent, sessionID),
			SendKey:   str("send_key"),
			Kind:      str("kind"),
			RemoteID:  str("remote_id"),
		}
	case events.ChannelDisconnectedEvent:
		return events.ChannelDisconnected{
			BaseEvent:         events.NewBaseEvent(events.ChannelDisconnectedEvent, sessionID),
			ChannelInstanceID: str("channel_instance_id"),
			Reason:            str("reason"),
		}
	default:
		return events.NodeEmitted{
			BaseEvent: events.NewBaseEvent(events.NodeEmittedEvent, sessionID),
			Name:      eventType,
			Data:      payload,
		}
	}
}
