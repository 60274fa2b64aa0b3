package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jornadaflow/jornada/pkg/persistence"
	"github.com/jornadaflow/jornada/pkg/persistence/file"
	"github.com/jornadaflow/jornada/pkg/persistence/postgresql"
)

// NewPersistence builds a persistence backend from a database URL. Postgres
// URLs get the SQL store, anything else falls back to the file store rooted
// at the URL path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgres persistence: %w", err))
		}

		return store
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
