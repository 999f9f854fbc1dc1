package agent

import (
	"context"
	"strings"

	"github.com/usetownhall/townhall/plugin/ai/router"
)

// EventCallback is the callback function type for agent events.
//
// The callback receives:
//   - eventType: The type of event (e.g., "answer", "tool_use", "handoff")
//   - eventData: The event data (a string for answer chunks)
//
// Returning an error aborts agent execution.
type EventCallback func(eventType string, eventData any) error

// Common event types.
const (
	EventTypeThinking   = "thinking"    // Agent is thinking
	EventTypeAnswer     = "answer"      // Streamed answer chunk for the citizen
	EventTypeToolUse    = "tool_use"    // Agent is invoking a tool
	EventTypeToolResult = "tool_result" // Tool execution result
	EventTypeHandoff    = "handoff"     // Control transferred to another role
	EventTypeError      = "error"       // Error occurred
)

// Outcome is the result of one role execution within a turn.
type Outcome struct {
	// Handoff names the next role, or RoleNone when the turn ends here.
	Handoff Role
}

// Agent is the interface implemented by every schedulable role.
type Agent interface {
	// Role returns the role this agent implements.
	Role() Role

	// Execute runs the role against the current turn. Streaming output
	// and tool activity are reported through the callback.
	Execute(ctx context.Context, turn *Turn, callback EventCallback) (*Outcome, error)
}

// Turn carries the per-turn state threaded through every agent
// invocation. It is scoped to a single incoming message.
type Turn struct {
	SessionID string
	// Input is the citizen message that triggered this turn.
	Input string
	// History holds prior exchanges as alternating user/assistant lines.
	History []string
	// Context is the shared per-session conversation context.
	Context *TownContext

	intent       router.Intent
	visited      map[Role]bool
	handoffCount int
}

// NewTurn creates a turn for one incoming message.
func NewTurn(sessionID, input string, history []string, tctx *TownContext) *Turn {
	if tctx == nil {
		tctx = NewTownContext()
	}
	return &Turn{
		SessionID: sessionID,
		Input:     input,
		History:   history,
		Context:   tctx,
		visited:   make(map[Role]bool),
	}
}

// Visited reports whether the role already ran within this turn.
func (t *Turn) Visited(role Role) bool {
	return t.visited[role]
}

// HandoffCount returns the number of handoffs taken so far this turn.
func (t *Turn) HandoffCount() int {
	return t.handoffCount
}

// Intent returns the triage verdict for this turn, if any.
func (t *Turn) Intent() router.Intent {
	return t.intent
}

func (t *Turn) markVisited(role Role) {
	t.visited[role] = true
}

// renderConversation flattens history plus the current input into a
// transcript for extraction prompts.
func renderConversation(history []string, input string) string {
	var sb strings.Builder
	for i, line := range history {
		if i%2 == 0 {
			sb.WriteString("Citizen: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("Citizen: ")
	sb.WriteString(input)
	return sb.String()
}
