package agent

import (
	"github.com/usetownhall/townhall/plugin/ai/timeout"
)

// truncateString shortens s for log output.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 || maxLen > timeout.MaxTruncateLength {
		maxLen = timeout.MaxTruncateLength
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// emit invokes the callback if one is set.
func emit(callback EventCallback, eventType string, eventData any) error {
	if callback == nil {
		return nil
	}
	return callback(eventType, eventData)
}
