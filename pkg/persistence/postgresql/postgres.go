// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/jornadaflow/jornada/pkg/persistence"
	"github.com/jornadaflow/jornada/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	flowRepo    *FlowRepository
	sessionRepo *SessionRepository
	timerRepo   *TimerRepository
	messageRepo *MessageRepository
	contactRepo *ContactRepository
	channelRepo *ChannelRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs
// migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		flowRepo:    &FlowRepository{db: database},
		sessionRepo: &SessionRepository{db: database},
		timerRepo:   &TimerRepository{db: database},
		messageRepo: &MessageRepository{db: database},
		contactRepo: &ContactRepository{db: database},
		channelRepo: &ChannelRepository{db: database},
	}, nil
}

func (p *Persistence) FlowRepository() persistence.FlowRepository       { return p.flowRepo }
func (p *Persistence) SessionRepository() persistence.SessionRepository { return p.sessionRepo }
func (p *Persistence) TimerRepository() persistence.TimerRepository     { return p.timerRepo }
func (p *Persistence) MessageRepository() persistence.MessageRepository { return p.messageRepo }
func (p *Persistence) ContactRepository() persistence.ContactRepository { return p.contactRepo }
func (p *Persistence) ChannelRepository() persistence.ChannelRepository { return p.channelRepo }

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
