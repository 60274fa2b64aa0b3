package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// TimerRepository implements timer storage on PostgreSQL. The upsert uses
// LEAST so a later schedule request can only tighten an outstanding timer.
type TimerRepository struct {
	db *sql.DB
}

func scanTimer(row interface{ Scan(...any) error }) (*models.TimerEntry, error) {
	var entry models.TimerEntry

	err := row.Scan(&entry.SessionID, &entry.RunAt, &entry.Reason,
		&entry.Status, &entry.Attempts, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *TimerRepository) TimerBySession(ctx context.Context, sessionID string) (*models.TimerEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_id, run_at, reason, status, attempts, created_at, updated_at
		FROM timers WHERE session_id = $1`, sessionID)

	entry, err := scanTimer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTimerNotFound
		}

		return nil, persistence.NewStoreError("TimerBySession", "timer", sessionID, err)
	}

	return entry, nil
}

func (r *TimerRepository) Upsert(ctx context.Context, entry *models.TimerEntry) error {
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO timers (session_id, run_at, reason, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, 'scheduled', 0, $4, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			run_at = CASE WHEN timers.status = 'scheduled'
				THEN LEAST(timers.run_at, EXCLUDED.run_at)
				ELSE EXCLUDED.run_at END,
			reason = CASE WHEN timers.status = 'scheduled' AND timers.run_at <= EXCLUDED.run_at
				THEN timers.reason
				ELSE EXCLUDED.reason END,
			status = 'scheduled',
			updated_at = EXCLUDED.updated_at`,
		entry.SessionID, entry.RunAt, entry.Reason, now)
	if err != nil {
		return persistence.NewStoreError("Upsert", "timer", entry.SessionID, err)
	}

	return nil
}

func (r *TimerRepository) Cancel(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM timers WHERE session_id = $1", sessionID)
	if err != nil {
		return persistence.NewStoreError("Cancel", "timer", sessionID, err)
	}

	return nil
}

func (r *TimerRepository) Due(ctx context.Context, now time.Time, limit int) ([]*models.TimerEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, run_at, reason, status, attempts, created_at, updated_at
		FROM timers
		WHERE status = 'scheduled' AND run_at <= $1
		ORDER BY run_at
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, persistence.NewStoreError("Due", "timer", "", err)
	}
	defer rows.Close()

	var due []*models.TimerEntry

	for rows.Next() {
		entry, err := scanTimer(rows)
		if err != nil {
			return nil, persistence.NewStoreError("Due", "timer", "", err)
		}

		due = append(due, entry)
	}

	return due, rows.Err()
}

func (r *TimerRepository) MarkDone(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE timers
		SET status = 'done', attempts = attempts + 1, updated_at = NOW()
		WHERE session_id = $1`, sessionID)
	if err != nil {
		return persistence.NewStoreError("MarkDone", "timer", sessionID, err)
	}

	return nil
}
