package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usetownhall/townhall/store"
)

func TestIncidentStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	reporter := "Jane Miller"
	created, err := ts.CreateIncident(ctx, &store.Incident{
		SessionID:        "session-001",
		IncidentType:     "theft",
		Description:      "Bicycle stolen at the central park entrance",
		DateOfOccurrence: &date,
		Location:         "Central Park, north entrance",
		PersonInvolved:   "unknown",
		ReporterName:     &reporter,
		SeverityLevel:    3,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotZero(t, created.CreatedTs)

	// Round-trip: re-reading by generated id returns field-for-field equal data.
	found, err := ts.GetIncident(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.SessionID, found.SessionID)
	require.Equal(t, created.IncidentType, found.IncidentType)
	require.Equal(t, created.Description, found.Description)
	require.Equal(t, created.Location, found.Location)
	require.Equal(t, created.PersonInvolved, found.PersonInvolved)
	require.Equal(t, created.SeverityLevel, found.SeverityLevel)
	require.NotNil(t, found.ReporterName)
	require.Equal(t, reporter, *found.ReporterName)
	require.NotNil(t, found.DateOfOccurrence)
	require.True(t, date.Equal(*found.DateOfOccurrence))
}

func TestIncidentStoreOptionalFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateIncident(ctx, &store.Incident{
		SessionID:      "session-002",
		IncidentType:   "vandalism",
		Description:    "Graffiti on the library wall",
		Location:       "Main street library",
		PersonInvolved: "unknown",
		SeverityLevel:  2,
	})
	require.NoError(t, err)

	found, err := ts.GetIncident(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Nil(t, found.DateOfOccurrence)
	require.Nil(t, found.ReporterName)
}

func TestIncidentStoreRejectsInvalidSeverity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.CreateIncident(ctx, &store.Incident{
		SessionID:      "session-003",
		IncidentType:   "noise",
		Description:    "Loud construction at night",
		Location:       "5th avenue",
		PersonInvolved: "construction crew",
		SeverityLevel:  0,
	})
	require.Error(t, err)

	// No partial row may be left behind.
	list, err := ts.ListIncidents(ctx, &store.FindIncident{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestIncidentStoreListBySession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	for _, sessionID := range []string{"session-a", "session-a", "session-b"} {
		_, err := ts.CreateIncident(ctx, &store.Incident{
			SessionID:      sessionID,
			IncidentType:   "lost_item",
			Description:    "Lost wallet near the bus stop",
			Location:       "Bus stop 12",
			PersonInvolved: "self",
			SeverityLevel:  1,
		})
		require.NoError(t, err)
	}

	sessionA := "session-a"
	list, err := ts.ListIncidents(ctx, &store.FindIncident{SessionID: &sessionA})
	require.NoError(t, err)
	require.Len(t, list, 2)

	all, err := ts.ListIncidents(ctx, &store.FindIncident{})
	require.NoError(t, err)
	require.Len(t, all, 3)
}
