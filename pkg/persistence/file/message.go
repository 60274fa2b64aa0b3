package file

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
)

// MessageRepository appends inbound messages to one JSON log per session.
type MessageRepository struct {
	store *Persistence
}

func (r *MessageRepository) load(sessionID string) ([]models.InboundMessage, error) {
	var messages []models.InboundMessage

	err := r.store.readJSON(r.store.path("messages", sessionID+".json"), &messages)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) AppendMessage(_ context.Context, msg *models.InboundMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	messages, err := r.load(msg.SessionID)
	if err != nil {
		return err
	}

	messages = append(messages, *msg)

	return r.store.writeJSON(r.store.path("messages", msg.SessionID+".json"), messages)
}

func (r *MessageRepository) ListSince(_ context.Context, sessionID string, since time.Time) ([]models.InboundMessage, error) {
	messages, err := r.load(sessionID)
	if err != nil {
		return nil, err
	}

	var out []models.InboundMessage

	for _, m := range messages {
		if m.ReceivedAt.After(since) {
			out = append(out, m)
		}
	}

	return out, nil
}

func (r *MessageRepository) Recent(_ context.Context, sessionID string, limit int) ([]models.InboundMessage, error) {
	messages, err := r.load(sessionID)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	return messages, nil
}
