package db

import (
	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/internal/profile"
	"github.com/usetownhall/townhall/store"
	"github.com/usetownhall/townhall/store/db/postgres"
	"github.com/usetownhall/townhall/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// This project supports only PostgreSQL and SQLite databases.
//
// SQLite: Default for development and small single-host deployments.
// PostgreSQL: For shared deployments where several instances write to
// the same incident/feedback tables.
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'sqlite' and 'postgres' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
