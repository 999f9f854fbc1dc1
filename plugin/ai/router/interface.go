// Package router provides intent classification for conversation routing.
// The routing graph itself lives in plugin/ai/agent; this package only
// answers "what is the citizen talking about" so triage can pick the
// next role. Implementation: rule-based first (0ms) -> LLM fallback.
package router

import "context"

// ClassifierService classifies citizen input into a routing intent.
type ClassifierService interface {
	// Classify returns the intent of the input given recent history.
	Classify(ctx context.Context, input string, history []string) (*Result, error)
}

// Intent represents the type of citizen intent.
type Intent string

const (
	// IntentIncident indicates a report of an incident (crime, lost item,
	// violation, anomaly).
	IntentIncident Intent = "incident"
	// IntentFeedback indicates feedback or a recommendation about the city.
	IntentFeedback Intent = "feedback"
	// IntentInsights indicates a request for city statistics and insights.
	IntentInsights Intent = "insights"
	// IntentDialogue indicates smalltalk or a general inquiry that stays
	// with the dialogue role.
	IntentDialogue Intent = "dialogue"
)

// Result represents the classification result.
type Result struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"` // "rule", "llm", "fallback" or "cache"
}
