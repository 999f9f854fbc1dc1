package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// Migration System Overview:
//
// Schema is small (two append-only tables), so the migrator only knows
// how to bootstrap a fresh database from LATEST.sql. Incremental
// migrations can be added as NN__description.sql files next to it once
// the schema starts evolving.
//
// Migration Files:
// - Location: store/migration/{driver}/LATEST.sql
// - LATEST.sql: Full schema for new installations

//go:embed migration
var migrationFS embed.FS

// Migrate bootstraps the database schema when it has not been
// initialized yet. Safe to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}
	if initialized {
		slog.Debug("database already initialized", "driver", s.profile.Driver)
		return nil
	}

	buf, err := migrationFS.ReadFile(fmt.Sprintf("migration/%s/LATEST.sql", s.profile.Driver))
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema for driver %s", s.profile.Driver)
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}

	slog.Info("database initialized", "driver", s.profile.Driver)
	return nil
}
