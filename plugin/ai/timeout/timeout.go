// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

const (
	// TurnTimeout is the default end-to-end timeout for one chat turn.
	TurnTimeout = 2 * time.Minute

	// StreamTimeout is the timeout for streaming responses from LLM.
	StreamTimeout = 5 * time.Minute

	// ToolTimeout is the timeout for a single tool execution
	// (formatter extraction, summarizer, insights fetch).
	ToolTimeout = 30 * time.Second

	// ClassifyTimeout is the timeout for LLM intent classification.
	ClassifyTimeout = 10 * time.Second

	// MaxHandoffs is the maximum number of role handoffs within one turn.
	// The graph is cyclic, so a runaway decision procedure must be cut off.
	MaxHandoffs = 6

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
