package store

// FeedbackSentiment is the overall sentiment of a feedback record.
type FeedbackSentiment string

const (
	FeedbackSentimentPositive FeedbackSentiment = "positive"
	FeedbackSentimentNeutral  FeedbackSentiment = "neutral"
	FeedbackSentimentNegative FeedbackSentiment = "negative"
)

// IsValid reports whether the sentiment is one of the allowed values.
func (s FeedbackSentiment) IsValid() bool {
	switch s {
	case FeedbackSentimentPositive, FeedbackSentimentNeutral, FeedbackSentimentNegative:
		return true
	}
	return false
}

// Feedback is structured citizen feedback extracted from a conversation.
// Same append-only persistence semantics as Incident.
type Feedback struct {
	ID        int32
	SessionID string
	Topic     string
	Summary   string
	Sentiment FeedbackSentiment
	CreatedTs int64
}

type FindFeedback struct {
	ID        *int32
	SessionID *string
	Limit     *int
}
