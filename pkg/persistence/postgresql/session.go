package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// SessionRepository implements session storage on PostgreSQL. The lease
// claim is a single conditional UPDATE so two racing invocations can never
// both win.
type SessionRepository struct {
	db *sql.DB
}

const sessionColumns = `id, flow_id, contact_id, channel_instance_id,
	current_node_id, variables, internal, status, processing,
	processing_started_at, timeout_at, last_interaction, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	var (
		session             models.Session
		variablesJSON       []byte
		internalJSON        []byte
		processingStartedAt sql.NullTime
		timeoutAt           sql.NullTime
	)

	err := row.Scan(
		&session.ID, &session.FlowID, &session.ContactID,
		&session.ChannelInstanceID, &session.CurrentNodeID,
		&variablesJSON, &internalJSON, &session.Status,
		&session.Processing, &processingStartedAt, &timeoutAt,
		&session.LastInteraction, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(variablesJSON, &session.Variables); err != nil {
		return nil, fmt.Errorf("failed to decode session variables: %w", err)
	}

	if err := json.Unmarshal(internalJSON, &session.Internal); err != nil {
		return nil, fmt.Errorf("failed to decode session internal state: %w", err)
	}

	if processingStartedAt.Valid {
		session.ProcessingStartedAt = &processingStartedAt.Time
	}

	if timeoutAt.Valid {
		session.TimeoutAt = &timeoutAt.Time
	}

	return &session, nil
}

func (r *SessionRepository) Sessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM sessions ORDER BY created_at")
	if err != nil {
		return nil, persistence.NewStoreError("Sessions", "session", "", err)
	}
	defer rows.Close()

	var sessions []*models.Session

	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, persistence.NewStoreError("Sessions", "session", "", err)
		}

		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (r *SessionRepository) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSessionNotFound
		}

		return nil, persistence.NewStoreError("SessionByID", "session", id, err)
	}

	return session, nil
}

func (r *SessionRepository) ActiveSessionByContact(ctx context.Context, channelInstanceID, contactID string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+` FROM sessions
		 WHERE status = 'active' AND contact_id = $1
		   AND ($2 = '' OR channel_instance_id = $2)
		 ORDER BY created_at DESC LIMIT 1`,
		contactID, channelInstanceID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSessionNotFound
		}

		return nil, persistence.NewStoreError("ActiveSessionByContact", "session", contactID, err)
	}

	return session, nil
}

func (r *SessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	variablesJSON, err := json.Marshal(session.Variables)
	if err != nil {
		return fmt.Errorf("failed to encode session variables: %w", err)
	}

	internalJSON, err := json.Marshal(session.Internal)
	if err != nil {
		return fmt.Errorf("failed to encode session internal state: %w", err)
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	session.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, flow_id, contact_id, channel_instance_id,
			current_node_id, variables, internal, status, processing,
			processing_started_at, timeout_at, last_interaction, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			current_node_id = EXCLUDED.current_node_id,
			variables = EXCLUDED.variables,
			internal = EXCLUDED.internal,
			status = EXCLUDED.status,
			timeout_at = EXCLUDED.timeout_at,
			last_interaction = EXCLUDED.last_interaction,
			updated_at = EXCLUDED.updated_at`,
		session.ID, session.FlowID, session.ContactID,
		session.ChannelInstanceID, session.CurrentNodeID,
		variablesJSON, internalJSON, session.Status, session.Processing,
		session.ProcessingStartedAt, session.TimeoutAt,
		session.LastInteraction, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("SaveSession", "session", session.ID, err)
	}

	return nil
}

// Claim grants the processing lease with one conditional UPDATE: the row is
// claimed iff it is idle or the current lease started before staleBefore.
func (r *SessionRepository) Claim(ctx context.Context, id string, now time.Time, staleBefore time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET processing = TRUE, processing_started_at = $2, updated_at = $2
		WHERE id = $1
		  AND (processing = FALSE
		       OR processing_started_at IS NULL
		       OR processing_started_at < $3)`,
		id, now, staleBefore)
	if err != nil {
		return false, persistence.NewStoreError("Claim", "session", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, persistence.NewStoreError("Claim", "session", id, err)
	}

	return affected == 1, nil
}

func (r *SessionRepository) Release(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET processing = FALSE, processing_started_at = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return persistence.NewStoreError("Release", "session", id, err)
	}

	return nil
}
