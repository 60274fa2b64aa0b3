package file

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// TimerRepository handles timer entry file operations. One file per
// session; the upsert keeps the earlier run_at.
type TimerRepository struct {
	store *Persistence
}

func (r *TimerRepository) TimerBySession(_ context.Context, sessionID string) (*models.TimerEntry, error) {
	var entry models.TimerEntry

	err := r.store.readJSON(r.store.path("timers", sessionID+".json"), &entry)
	if err != nil {
		if isNotExist(err) {
			return nil, persistence.ErrTimerNotFound
		}

		return nil, persistence.NewStoreError("TimerBySession", "timer", sessionID, err)
	}

	return &entry, nil
}

func (r *TimerRepository) Upsert(ctx context.Context, entry *models.TimerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()

	existing, err := r.TimerBySession(ctx, entry.SessionID)
	if err == nil && existing.Status == models.TimerStatusScheduled {
		// An outstanding timer may only be tightened, never pushed out.
		if !existing.RunAt.After(entry.RunAt) {
			return nil
		}

		existing.RunAt = entry.RunAt
		existing.Reason = entry.Reason
		existing.UpdatedAt = now

		return r.store.writeJSON(r.store.path("timers", entry.SessionID+".json"), existing)
	}

	entry.Status = models.TimerStatusScheduled
	entry.CreatedAt = now
	entry.UpdatedAt = now

	return r.store.writeJSON(r.store.path("timers", entry.SessionID+".json"), entry)
}

func (r *TimerRepository) Cancel(_ context.Context, sessionID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	err := removeFile(r.store.path("timers", sessionID+".json"))
	if isNotExist(err) {
		return nil
	}

	return err
}

func (r *TimerRepository) Due(ctx context.Context, now time.Time, limit int) ([]*models.TimerEntry, error) {
	ids, err := r.store.listIDs("timers")
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var due []*models.TimerEntry

	for _, id := range ids {
		entry, err := r.TimerBySession(ctx, id)
		if err != nil {
			return nil, err
		}

		if entry.IsDue(now) {
			due = append(due, entry)
			if limit > 0 && len(due) >= limit {
				break
			}
		}
	}

	return due, nil
}

func (r *TimerRepository) MarkDone(ctx context.Context, sessionID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entry, err := r.TimerBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	entry.Status = models.TimerStatusDone
	entry.Attempts++
	entry.UpdatedAt = time.Now().UTC()

	return r.store.writeJSON(r.store.path("timers", sessionID+".json"), entry)
}
