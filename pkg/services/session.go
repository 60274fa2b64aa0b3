package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jornadaflow/jornada/pkg/eventbus"
	"github.com/jornadaflow/jornada/pkg/events"
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// Session starts conversations and routes external input into them. The
// service never runs the interpreter itself: it persists state and
// publishes InvocationRequested events the workers consume, so the API
// stays fast and the per-session lease stays the only concurrency control.
type Session struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
	logger      *slog.Logger
}

// NewSession creates a session service.
func NewSession(persist persistence.Persistence, bus eventbus.EventPublisher, logger *slog.Logger) *Session {
	return &Session{persistence: persist, bus: bus, logger: logger}
}

// StartRequest asks for a contact to enter a flow.
type StartRequest struct {
	FlowID            string `json:"flow_id"             validate:"required"`
	ContactID         string `json:"contact_id"          validate:"required"`
	ChannelInstanceID string `json:"channel_instance_id"`

	// Variables seeds the session's variable map (name, custom fields).
	Variables map[string]any `json:"variables,omitempty"`
}

// Start creates a session on a published flow and requests its first
// invocation. A contact with an active session on the channel keeps it:
// the existing session is returned unchanged.
func (s *Session) Start(ctx context.Context, req StartRequest) (*models.Session, error) {
	if req.FlowID == "" {
		return nil, ErrFlowIDRequired
	}

	if req.ContactID == "" {
		return nil, ErrContactIDRequired
	}

	flow, err := s.persistence.FlowRepository().FlowByID(ctx, req.FlowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}

	if flow.Status != models.FlowStatusPublished {
		return nil, ErrFlowNotPublished
	}

	start := flow.StartNode()
	if start == nil {
		return nil, ErrFlowNotPublished
	}

	existing, err := s.persistence.SessionRepository().ActiveSessionByContact(ctx, req.ChannelInstanceID, req.ContactID)
	if err == nil {
		s.logger.InfoContext(ctx, "Contact already in an active session",
			"contact_id", req.ContactID, "session_id", existing.ID)

		return existing, nil
	}

	if !errors.Is(err, persistence.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:                uuid.New().String(),
		FlowID:            flow.ID,
		ContactID:         req.ContactID,
		ChannelInstanceID: req.ChannelInstanceID,
		CurrentNodeID:     start.ID,
		Variables:         map[string]any{},
		Status:            models.SessionStatusActive,
		LastInteraction:   now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	for k, v := range req.Variables {
		session.Variables[k] = v
	}

	if contact, contactErr := s.persistence.ContactRepository().ContactByID(ctx, req.ContactID); contactErr == nil {
		if _, seeded := session.Variables["name"]; !seeded && contact.Name != "" {
			session.Variables["name"] = contact.Name
		}
	}

	if err := s.persistence.SessionRepository().SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(ctx, session.ID, events.SessionStarted{
		BaseEvent: events.NewBaseEvent(events.SessionStartedEvent, session.ID),
		FlowID:    flow.ID,
		ContactID: req.ContactID,
	})

	if err := s.requestInvocation(ctx, models.Invocation{SessionID: session.ID}); err != nil {
		return nil, err
	}

	return session, nil
}

// InboundRequest carries one contact message arriving from the channel.
type InboundRequest struct {
	ChannelInstanceID string             `json:"channel_instance_id"`
	ContactID         string             `json:"contact_id" validate:"required"`
	Text              string             `json:"text"`
	Kind              models.MessageKind `json:"kind"`
	MediaRef          string             `json:"media_ref"`
}

// HandleInbound routes a contact message into the contact's active session.
func (s *Session) HandleInbound(ctx context.Context, req InboundRequest) (*models.Session, error) {
	if req.ContactID == "" {
		return nil, ErrContactIDRequired
	}

	if req.Text == "" && req.MediaRef == "" {
		return nil, ErrMessageRequired
	}

	session, err := s.persistence.SessionRepository().ActiveSessionByContact(ctx, req.ChannelInstanceID, req.ContactID)
	if err != nil {
		if errors.Is(err, persistence.ErrSessionNotFound) {
			return nil, ErrNoActiveSession
		}

		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	inv := models.Invocation{
		SessionID: session.ID,
		UserInput: req.Text,
		InputKind: req.Kind,
		MediaRef:  req.MediaRef,
	}

	if err := s.requestInvocation(ctx, inv); err != nil {
		return nil, err
	}

	return session, nil
}

// ForceAdvance is the operator override: push a waiting session down its
// response edge without contact input.
func (s *Session) ForceAdvance(ctx context.Context, sessionID string) error {
	session, err := s.persistence.SessionRepository().SessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if session.Status == models.SessionStatusCompleted {
		return ErrSessionCompleted
	}

	return s.requestInvocation(ctx, models.Invocation{
		SessionID:        sessionID,
		ForceDefaultEdge: true,
	})
}

// SessionByID fetches one session.
func (s *Session) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	return s.persistence.SessionRepository().SessionByID(ctx, id)
}

// Sessions lists all sessions.
func (s *Session) Sessions(ctx context.Context) ([]*models.Session, error) {
	return s.persistence.SessionRepository().Sessions(ctx)
}

func (s *Session) requestInvocation(ctx context.Context, inv models.Invocation) error {
	event := events.InvocationRequested{
		BaseEvent:  events.NewBaseEvent(events.InvocationRequestedEvent, inv.SessionID),
		Invocation: inv,
	}

	if err := s.bus.Publish(ctx, inv.SessionID, event); err != nil {
		return fmt.Errorf("failed to request invocation: %w", err)
	}

	return nil
}

func (s *Session) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := s.bus.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
