package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// CreateIncident persists one incident row. Each insert is an
// independent transaction; no multi-record atomicity is promised.
func (s *Store) CreateIncident(ctx context.Context, create *Incident) (*Incident, error) {
	if create.SeverityLevel <= 0 {
		return nil, errors.New("severity level must be a positive integer")
	}
	return s.driver.CreateIncident(ctx, create)
}

func (s *Store) GetIncident(ctx context.Context, id int32) (*Incident, error) {
	list, err := s.driver.ListIncidents(ctx, &FindIncident{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListIncidents(ctx context.Context, find *FindIncident) ([]*Incident, error) {
	return s.driver.ListIncidents(ctx, find)
}

// CreateFeedback persists one feedback row.
func (s *Store) CreateFeedback(ctx context.Context, create *Feedback) (*Feedback, error) {
	if !create.Sentiment.IsValid() {
		return nil, errors.Errorf("invalid sentiment: %s", create.Sentiment)
	}
	return s.driver.CreateFeedback(ctx, create)
}

func (s *Store) GetFeedback(ctx context.Context, id int32) (*Feedback, error) {
	list, err := s.driver.ListFeedbacks(ctx, &FindFeedback{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListFeedbacks(ctx context.Context, find *FindFeedback) ([]*Feedback, error) {
	return s.driver.ListFeedbacks(ctx, find)
}

// CountIncidents returns the total number of persisted incidents.
// Used by the insights tool for aggregate reporting.
func (s *Store) CountIncidents(ctx context.Context) (int, error) {
	list, err := s.driver.ListIncidents(ctx, &FindIncident{})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}
