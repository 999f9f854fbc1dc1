package agent

// Conversation is the derived summary of a whole conversation.
// Computed on demand by the summarizer and held in context; not
// persisted in the current schema.
type Conversation struct {
	// Topics
	Topics       []string `json:"topics"`
	PrimaryTopic string   `json:"primary_topic"`

	// Analytical signals
	TopicShiftCount int `json:"topic_shift_count"`
	TurnCount       int `json:"turn_count"`

	// Interventions
	HandoffCount int `json:"handoff_count"`

	// Category
	ConversationType string `json:"conversation_type" jsonschema:"enum=incident,enum=feedback,enum=inquiry,enum=other"`

	// Sentiments
	SentimentStart     float64 `json:"sentiment_start"`
	SentimentEnd       float64 `json:"sentiment_end"`
	SentimentTrend     float64 `json:"sentiment_trend"`
	SentimentDirection string  `json:"sentiment_direction" jsonschema:"enum=up,enum=down,enum=flat"`

	// Outcome
	Resolved bool `json:"resolved"`
}
