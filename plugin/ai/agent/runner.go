package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/plugin/ai/timeout"
)

// TurnResult is the outcome of one full routing turn.
type TurnResult struct {
	// FinalRole is the role that was active when generation stopped.
	// It becomes the session's active role for the next turn.
	FinalRole Role
	// Answer is the concatenation of all streamed answer chunks.
	Answer string
}

// Runner drives one turn through the routing graph: it schedules the
// starting role, follows handoffs, and enforces the graph invariants
// (edges must be statically declared, bounded handoff count, one
// visit per schedulable role per turn).
type Runner struct {
	agents      map[Role]Agent
	turnTimeout time.Duration
}

// NewRunner creates a runner over the given schedulable agents. Tool
// roles are driven by the coordinator and must not be registered here.
func NewRunner(agents []Agent, turnTimeout time.Duration) *Runner {
	if turnTimeout <= 0 {
		turnTimeout = timeout.TurnTimeout
	}
	m := make(map[Role]Agent, len(agents))
	for _, a := range agents {
		m[a.Role()] = a
	}
	return &Runner{agents: m, turnTimeout: turnTimeout}
}

// RunTurn executes one turn starting from the session's recorded
// active role. On error the returned result still names the role where
// execution stopped, so the caller can record it.
func (r *Runner) RunTurn(ctx context.Context, startRole Role, turn *Turn, callback EventCallback) (*TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.turnTimeout)
	defer cancel()

	startTime := time.Now()

	var answer strings.Builder
	wrapped := func(eventType string, eventData any) error {
		if eventType == EventTypeAnswer {
			if chunk, ok := eventData.(string); ok {
				answer.WriteString(chunk)
			}
		}
		return emit(callback, eventType, eventData)
	}

	current := startRole
	if _, ok := r.agents[current]; !ok {
		// Unknown or tool role recorded as active; recover at dialogue.
		current = RoleDialogue
	}

	slog.Info("Runner: turn started",
		"session_id", turn.SessionID,
		"start_role", current,
		"input", truncateString(turn.Input, 100),
	)

	for {
		agent, ok := r.agents[current]
		if !ok {
			return &TurnResult{FinalRole: current, Answer: answer.String()},
				NewAgentError(current, "schedule", errors.New("no agent registered for role"))
		}

		turn.markVisited(current)

		outcome, err := agent.Execute(ctx, turn, wrapped)
		if err != nil {
			return &TurnResult{FinalRole: current, Answer: answer.String()}, err
		}

		next := outcome.Handoff
		if next == RoleNone {
			break
		}

		if !current.CanHandoff(next) {
			return &TurnResult{FinalRole: current, Answer: answer.String()},
				NewAgentError(current, "handoff", errors.Wrapf(ErrIllegalHandoff, "%s -> %s", current, next))
		}

		turn.handoffCount++
		if turn.handoffCount > timeout.MaxHandoffs {
			return &TurnResult{FinalRole: current, Answer: answer.String()},
				NewAgentError(current, "handoff", ErrTooManyHandoffs)
		}

		if err := emit(callback, EventTypeHandoff, next.String()); err != nil {
			return &TurnResult{FinalRole: current, Answer: answer.String()}, err
		}

		slog.Debug("Runner: handoff",
			"session_id", turn.SessionID,
			"from", current,
			"to", next,
			"handoff_count", turn.handoffCount,
		)

		current = next
	}

	slog.Info("Runner: turn completed",
		"session_id", turn.SessionID,
		"final_role", current,
		"handoffs", turn.handoffCount,
		"answer_length", answer.Len(),
		"duration", time.Since(startTime),
	)

	return &TurnResult{FinalRole: current, Answer: answer.String()}, nil
}
