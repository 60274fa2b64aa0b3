// Package persistence provides the data storage abstraction layer for
// flows, sessions, timers, messages and contacts.
package persistence

import (
	"context"
	"time"

	"github.com/jornadaflow/jornada/pkg/models"
)

// FlowRepository stores authored flow graphs.
type FlowRepository interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	FlowByID(ctx context.Context, id string) (*models.Flow, error)
	SaveFlow(ctx context.Context, flow *models.Flow) error
	DeleteFlow(ctx context.Context, id string) error
}

// SessionRepository stores per-contact session records. Claim and Release
// implement the processing lease at the storage level: Claim is a single
// atomic conditional update.
type SessionRepository interface {
	Sessions(ctx context.Context) ([]*models.Session, error)
	SessionByID(ctx context.Context, id string) (*models.Session, error)

	// ActiveSessionByContact finds the contact's active session on a
	// channel instance, if any.
	ActiveSessionByContact(ctx context.Context, channelInstanceID, contactID string) (*models.Session, error)

	SaveSession(ctx context.Context, session *models.Session) error

	// Claim atomically sets processing=true and stamps the lease. It
	// succeeds when processing=false, or when the current lease started
	// before staleBefore. Returns false when the session is busy.
	Claim(ctx context.Context, id string, now time.Time, staleBefore time.Time) (bool, error)

	// Release unconditionally clears the processing flag and lease stamp.
	Release(ctx context.Context, id string) error
}

// TimerRepository stores the per-session wake-up entries. SessionID is
// unique per entry.
type TimerRepository interface {
	TimerBySession(ctx context.Context, sessionID string) (*models.TimerEntry, error)

	// Upsert inserts or tightens the session's timer: when an entry is
	// already scheduled, the earlier run_at wins.
	Upsert(ctx context.Context, entry *models.TimerEntry) error

	Cancel(ctx context.Context, sessionID string) error

	// Due lists scheduled entries with run_at at or before now.
	Due(ctx context.Context, now time.Time, limit int) ([]*models.TimerEntry, error)

	// MarkDone retires a dispatched entry and bumps its attempt counter.
	MarkDone(ctx context.Context, sessionID string) error
}

// MessageRepository logs inbound messages per session.
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg *models.InboundMessage) error
	ListSince(ctx context.Context, sessionID string, since time.Time) ([]models.InboundMessage, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]models.InboundMessage, error)
}

// ContactRepository stores contacts and their tags.
type ContactRepository interface {
	ContactByID(ctx context.Context, id string) (*models.Contact, error)
	SaveContact(ctx context.Context, contact *models.Contact) error
}

// ChannelRepository stores channel instances and their connection state.
type ChannelRepository interface {
	ChannelByID(ctx context.Context, id string) (*models.ChannelInstance, error)
	SaveChannel(ctx context.Context, channel *models.ChannelInstance) error

	// MarkDisconnected flags a channel whose sends are failing with
	// disconnect phrasing.
	MarkDisconnected(ctx context.Context, id string, reason string) error
}

// Persistence aggregates the repositories behind one connection handle.
type Persistence interface {
	FlowRepository() FlowRepository
	SessionRepository() SessionRepository
	TimerRepository() TimerRepository
	MessageRepository() MessageRepository
	ContactRepository() ContactRepository
	ChannelRepository() ChannelRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
