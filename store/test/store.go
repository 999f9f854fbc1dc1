package test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/usetownhall/townhall/internal/profile"
	"github.com/usetownhall/townhall/store"
	"github.com/usetownhall/townhall/store/db"
)

// NewTestingStore creates a Store backed by a throwaway SQLite database.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	profile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(dbDriver, profile)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	return ts
}

func getTestingProfile(t *testing.T) *profile.Profile {
	dir := t.TempDir()
	return &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
		DSN:    filepath.Join(dir, fmt.Sprintf("townhall_test_%s.db", t.Name())),
	}
}
