package store

import "time"

// Incident is a structured citizen report extracted from a conversation.
// Rows are append-only: one row per extraction event, never updated.
type Incident struct {
	ID               int32
	SessionID        string
	IncidentType     string
	Description      string
	DateOfOccurrence *time.Time
	Location         string
	PersonInvolved   string
	ReporterName     *string
	SeverityLevel    int32
	CreatedTs        int64
}

type FindIncident struct {
	ID        *int32
	SessionID *string
	Limit     *int
}
