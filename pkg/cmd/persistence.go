// Package cmd provides shared construction helpers for the dashboard
// binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agentdash/agentdash/pkg/persistence"
	"github.com/agentdash/agentdash/pkg/persistence/file"
	"github.com/agentdash/agentdash/pkg/persistence/postgresql"
)

// NewPersistence builds a persistence layer from a database URL. A postgres
// URL selects PostgreSQL; anything else falls back to the file backend with
// the URL as root directory.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}
