package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usetownhall/townhall/store"
)

func TestFeedbackStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateFeedback(ctx, &store.Feedback{
		SessionID: "session-001",
		Topic:     "park maintenance",
		Summary:   "More benches requested along the river walk",
		Sentiment: store.FeedbackSentimentPositive,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := ts.GetFeedback(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.Topic, found.Topic)
	require.Equal(t, created.Summary, found.Summary)
	require.Equal(t, store.FeedbackSentimentPositive, found.Sentiment)
}

func TestFeedbackStoreRejectsInvalidSentiment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.CreateFeedback(ctx, &store.Feedback{
		SessionID: "session-002",
		Topic:     "transit",
		Summary:   "Bus line 4 is always late",
		Sentiment: store.FeedbackSentiment("angry"),
	})
	require.Error(t, err)

	list, err := ts.ListFeedbacks(ctx, &store.FindFeedback{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestFeedbackStoreGetMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	found, err := ts.GetFeedback(ctx, 12345)
	require.NoError(t, err)
	require.Nil(t, found)
}
