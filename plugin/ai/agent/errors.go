package agent

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrIllegalHandoff is returned when a runtime handoff is not part of
// the statically declared graph.
var ErrIllegalHandoff = errors.New("handoff not allowed by routing graph")

// ErrTooManyHandoffs is returned when a turn exceeds the handoff budget.
var ErrTooManyHandoffs = errors.New("too many handoffs in one turn")

// AgentError represents an error from an agent or tool execution.
type AgentError struct {
	Role      Role   // Role that produced the error
	Operation string // Operation being performed when error occurred
	Err       error  // Underlying error
}

func (e *AgentError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("agent %s: %s failed: %v", e.Role, e.Operation, e.Err)
}

func (e *AgentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAgentError creates a new AgentError.
func NewAgentError(role Role, operation string, err error) *AgentError {
	return &AgentError{
		Role:      role,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError indicates an extraction did not conform to the target
// schema. It aborts the formatting pass before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}
