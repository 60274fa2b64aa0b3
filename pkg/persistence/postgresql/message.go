package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// MessageRepository implements the inbound message log on PostgreSQL.
type MessageRepository struct {
	db *sql.DB
}

func (r *MessageRepository) AppendMessage(ctx context.Context, msg *models.InboundMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inbound_messages (id, session_id, contact_id, kind, text, media_ref, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.SessionID, msg.ContactID, msg.Kind, msg.Text,
		msg.MediaRef, msg.ReceivedAt)
	if err != nil {
		return persistence.NewStoreError("AppendMessage", "message", msg.ID, err)
	}

	return nil
}

func (r *MessageRepository) query(ctx context.Context, q string, args ...any) ([]models.InboundMessage, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, persistence.NewStoreError("ListMessages", "message", "", err)
	}
	defer rows.Close()

	var messages []models.InboundMessage

	for rows.Next() {
		var m models.InboundMessage

		err := rows.Scan(&m.ID, &m.SessionID, &m.ContactID, &m.Kind,
			&m.Text, &m.MediaRef, &m.ReceivedAt)
		if err != nil {
			return nil, persistence.NewStoreError("ListMessages", "message", "", err)
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (r *MessageRepository) ListSince(ctx context.Context, sessionID string, since time.Time) ([]models.InboundMessage, error) {
	return r.query(ctx, `
		SELECT id, session_id, contact_id, kind, text, media_ref, received_at
		FROM inbound_messages
		WHERE session_id = $1 AND received_at > $2
		ORDER BY received_at`, sessionID, since)
}

func (r *MessageRepository) Recent(ctx context.Context, sessionID string, limit int) ([]models.InboundMessage, error) {
	if limit <= 0 {
		limit = 20
	}

	messages, err := r.query(ctx, `
		SELECT id, session_id, contact_id, kind, text, media_ref, received_at
		FROM inbound_messages
		WHERE session_id = $1
		ORDER BY received_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}

	// Restore chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
