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

// ContactRepository implements contact storage on PostgreSQL.
type ContactRepository struct {
	db *sql.DB
}

func (r *ContactRepository) ContactByID(ctx context.Context, id string) (*models.Contact, error) {
	var (
		contact  models.Contact
		tagsJSON []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, tags, created_at, updated_at
		FROM contacts WHERE id = $1`, id).
		Scan(&contact.ID, &contact.Name, &contact.Phone, &tagsJSON,
			&contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrContactNotFound
		}

		return nil, persistence.NewStoreError("ContactByID", "contact", id, err)
	}

	if err := json.Unmarshal(tagsJSON, &contact.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode contact tags: %w", err)
	}

	return &contact, nil
}

func (r *ContactRepository) SaveContact(ctx context.Context, contact *models.Contact) error {
	tagsJSON, err := json.Marshal(contact.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode contact tags: %w", err)
	}

	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}

	contact.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, phone, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at`,
		contact.ID, contact.Name, contact.Phone, tagsJSON,
		contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("SaveContact", "contact", contact.ID, err)
	}

	return nil
}

// ChannelRepository implements channel instance storage on PostgreSQL.
type ChannelRepository struct {
	db *sql.DB
}

func (r *ChannelRepository) ChannelByID(ctx context.Context, id string) (*models.ChannelInstance, error) {
	var channel models.ChannelInstance

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, last_error, updated_at
		FROM channel_instances WHERE id = $1`, id).
		Scan(&channel.ID, &channel.Name, &channel.Status,
			&channel.LastError, &channel.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrChannelNotFound
		}

		return nil, persistence.NewStoreError("ChannelByID", "channel", id, err)
	}

	return &channel, nil
}

func (r *ChannelRepository) SaveChannel(ctx context.Context, channel *models.ChannelInstance) error {
	channel.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_instances (id, name, status, last_error, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at`,
		channel.ID, channel.Name, channel.Status, channel.LastError,
		channel.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("SaveChannel", "channel", channel.ID, err)
	}

	return nil
}

func (r *ChannelRepository) MarkDisconnected(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE channel_instances
		SET status = 'disconnected', last_error = $2, updated_at = NOW()
		WHERE id = $1`, id, reason)
	if err != nil {
		return persistence.NewStoreError("MarkDisconnected", "channel", id, err)
	}

	return nil
}
