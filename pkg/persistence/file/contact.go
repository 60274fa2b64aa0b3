package file

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/persistence"
)

// ContactRepository handles contact file operations.
type ContactRepository struct {
	store *Persistence
}

func (r *ContactRepository) ContactByID(_ context.Context, id string) (*models.Contact, error) {
	var contact models.Contact

	err := r.store.readJSON(r.store.path("contacts", id+".json"), &contact)
	if err != nil {
		if isNotExist(err) {
			return nil, persistence.ErrContactNotFound
		}

		return nil, persistence.NewStoreError("ContactByID", "contact", id, err)
	}

	return &contact, nil
}

func (r *ContactRepository) SaveContact(_ context.Context, contact *models.Contact) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}

	contact.UpdatedAt = now

	return r.store.writeJSON(r.store.path("contacts", contact.ID+".json"), contact)
}

// ChannelRepository handles channel instance file operations.
type ChannelRepository struct {
	store *Persistence
}

func (r *ChannelRepository) ChannelByID(_ context.Context, id string) (*models.ChannelInstance, error) {
	var channel models.ChannelInstance

	err := r.store.readJSON(r.store.path("channels", id+".json"), &channel)
	if err != nil {
		if isNotExist(err) {
			return nil, persistence.ErrChannelNotFound
		}

		return nil, persistence.NewStoreError("ChannelByID", "channel", id, err)
	}

	return &channel, nil
}

func (r *ChannelRepository) SaveChannel(_ context.Context, channel *models.ChannelInstance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	channel.UpdatedAt = time.Now().UTC()

	return r.store.writeJSON(r.store.path("channels", channel.ID+".json"), channel)
}

func (r *ChannelRepository) MarkDisconnected(ctx context.Context, id string, reason string) error {
	channel, err := r.ChannelByID(ctx, id)
	if err != nil {
		return err
	}

	channel.Status = models.ChannelInstanceDisconnected
	channel.LastError = reason

	return r.SaveChannel(ctx, channel)
}
