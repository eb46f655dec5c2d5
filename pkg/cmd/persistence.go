package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/persistence/file"
	"github.com/ringflow/ringflow/pkg/persistence/postgresql"
)

// NewPersistence builds the persistence layer from a database url. The
// scheme selects the implementation; anything unrecognized is treated as a
// file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgresql persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}
