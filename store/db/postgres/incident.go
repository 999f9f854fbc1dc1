package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/store"
)

func (d *DB) CreateIncident(ctx context.Context, create *store.Incident) (*store.Incident, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	fields := []string{"session_id", "incident_type", "description", "date_of_occurrence", "location", "person_involved", "reporter_name", "severity_level", "created_ts"}
	args := []any{create.SessionID, create.IncidentType, create.Description, create.DateOfOccurrence, create.Location, create.PersonInvolved, create.ReporterName, create.SeverityLevel, create.CreatedTs}

	stmt := `INSERT INTO incident (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create incident")
	}

	return create, nil
}

func (d *DB) ListIncidents(ctx context.Context, find *store.FindIncident) ([]*store.Incident, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.SessionID != nil {
		where, args = append(where, "session_id = "+placeholder(len(args)+1)), append(args, *find.SessionID)
	}

	query := `SELECT id, session_id, incident_type, description, date_of_occurrence, location, person_involved, reporter_name, severity_level, created_ts
		FROM incident WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list incidents")
	}
	defer rows.Close()

	list := make([]*store.Incident, 0)
	for rows.Next() {
		incident := &store.Incident{}
		var dateOfOccurrence sql.NullTime
		var reporterName sql.NullString
		if err := rows.Scan(
			&incident.ID,
			&incident.SessionID,
			&incident.IncidentType,
			&incident.Description,
			&dateOfOccurrence,
			&incident.Location,
			&incident.PersonInvolved,
			&reporterName,
			&incident.SeverityLevel,
			&incident.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan incident")
		}
		if dateOfOccurrence.Valid {
			incident.DateOfOccurrence = &dateOfOccurrence.Time
		}
		if reporterName.Valid {
			incident.ReporterName = &reporterName.String
		}
		list = append(list, incident)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate incidents")
	}

	return list, nil
}
