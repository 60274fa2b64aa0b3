package file

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// SessionRepository handles session file operations. Claim and Release run
// under the store mutex so the conditional lease update is atomic.
type SessionRepository struct {
	store *Persistence
}

func (r *SessionRepository) Sessions(ctx context.Context) ([]*models.Session, error) {
	ids, err := r.store.listIDs("sessions")
	if err != nil {
		if isNotExist(err) {
			return []*models.Session{}, nil
		}

		return nil, err
	}

	sessions := make([]*models.Session, 0, len(ids))

	for _, id := range ids {
		session, err := r.SessionByID(ctx, id)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (r *SessionRepository) SessionByID(_ context.Context, id string) (*models.Session, error) {
	var session models.Session

	err := r.store.readJSON(r.store.path("sessions", id+".json"), &session)
	if err != nil {
		if isNotExist(err) {
			return nil, persistence.ErrSessionNotFound
		}

		return nil, persistence.NewStoreError("SessionByID", "session", id, err)
	}

	return &session, nil
}

func (r *SessionRepository) ActiveSessionByContact(ctx context.Context, channelInstanceID, contactID string) (*models.Session, error) {
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if s.Status == models.SessionStatusActive &&
			s.ContactID == contactID &&
			(channelInstanceID == "" || s.ChannelInstanceID == channelInstanceID) {
			return s, nil
		}
	}

	return nil, persistence.ErrSessionNotFound
}

func (r *SessionRepository) SaveSession(_ context.Context, session *models.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.saveLocked(session)
}

func (r *SessionRepository) saveLocked(session *models.Session) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	session.UpdatedAt = now

	return r.store.writeJSON(r.store.path("sessions", session.ID+".json"), session)
}

// Claim atomically grants the processing lease: either the session is idle,
// or the current holder's lease started before staleBefore.
func (r *SessionRepository) Claim(ctx context.Context, id string, now time.Time, staleBefore time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, err := r.SessionByID(ctx, id)
	if err != nil {
		return false, err
	}

	if session.Processing {
		if session.ProcessingStartedAt == nil || session.ProcessingStartedAt.After(staleBefore) {
			return false, nil
		}
	}

	session.Processing = true
	session.ProcessingStartedAt = &now

	return true, r.saveLocked(session)
}

func (r *SessionRepository) Release(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, err := r.SessionByID(ctx, id)
	if err != nil {
		return err
	}

	session.Processing = false
	session.ProcessingStartedAt = nil

	return r.saveLocked(session)
}
