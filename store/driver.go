package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Incident model related methods.
	CreateIncident(ctx context.Context, create *Incident) (*Incident, error)
	ListIncidents(ctx context.Context, find *FindIncident) ([]*Incident, error)

	// Feedback model related methods.
	CreateFeedback(ctx context.Context, create *Feedback) (*Feedback, error)
	ListFeedbacks(ctx context.Context, find *FindFeedback) ([]*Feedback, error)
}
