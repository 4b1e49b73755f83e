// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/postsync/pkg/persistence"
	"github.com/dukex/postsync/pkg/persistence/file"
	"github.com/dukex/postsync/pkg/persistence/postgresql"
)

// NewPersistence opens the store named by databaseURL: postgres:// or
// postgresql:// selects PostgreSQL, anything else is a file store root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgresql persistence: %w", err)
		}

		return store, nil
	default:
		logger.InfoContext(ctx, "Using file persistence", "root", strings.TrimPrefix(databaseURL, "file://"))

		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgresql"
	default:
		return "file"
	}
}
