package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/store"
)

func (d *DB) CreateFeedback(ctx context.Context, create *store.Feedback) (*store.Feedback, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	fields := []string{"session_id", "topic", "summary", "sentiment", "created_ts"}
	args := []any{create.SessionID, create.Topic, create.Summary, string(create.Sentiment), create.CreatedTs}

	stmt := `INSERT INTO feedback (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create feedback")
	}

	return create, nil
}

func (d *DB) ListFeedbacks(ctx context.Context, find *store.FindFeedback) ([]*store.Feedback, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.SessionID != nil {
		where, args = append(where, "session_id = "+placeholder(len(args)+1)), append(args, *find.SessionID)
	}

	query := `SELECT id, session_id, topic, summary, sentiment, created_ts
		FROM feedback WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feedbacks")
	}
	defer rows.Close()

	list := make([]*store.Feedback, 0)
	for rows.Next() {
		feedback := &store.Feedback{}
		var sentiment string
		if err := rows.Scan(
			&feedback.ID,
			&feedback.SessionID,
			&feedback.Topic,
			&feedback.Summary,
			&sentiment,
			&feedback.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan feedback")
		}
		feedback.Sentiment = store.FeedbackSentiment(sentiment)
		list = append(list, feedback)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate feedbacks")
	}

	return list, nil
}
