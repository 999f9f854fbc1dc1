// Package session provides the in-memory session registry for the
// town hall conversation pipeline.
//
// Sessions live for the process lifetime: created on first message or
// an explicit create call, removed by an explicit delete or by the
// optional retention-based cleanup job.
package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/plugin/ai/agent"
)

// ErrNotFound is returned for any operation on an unknown session id.
var ErrNotFound = errors.New("session not found")

// Message represents a conversation message.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Session is the per-conversation state tracked by the registry.
type Session struct {
	ID           string             `json:"session_id"`
	UserID       string             `json:"user_id"`
	GroupID      string             `json:"group_id"`
	CreatedTs    int64              `json:"created_ts"`
	LastActiveTs int64              `json:"last_active_ts"`
	MessageCount int                `json:"message_count"`
	ActiveRole   agent.Role         `json:"active_role"`
	Context      *agent.TownContext `json:"-"`
	Messages     []Message          `json:"-"`
}

// Service defines the session registry contract.
//
// Reads (Get, List, Count) may run concurrently; mutations to the same
// session id (Touch, SetActiveRole, AppendExchange, Delete) are
// serialized by the implementation. No ordering is promised across
// different session ids.
type Service interface {
	// Create registers a new session. An empty userID yields a generated
	// anonymous user id.
	Create(ctx context.Context, userID string) (*Session, error)

	// Get returns a snapshot of the session or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch marks the start of a turn: bumps the message count and the
	// last-active timestamp, and returns the updated snapshot.
	Touch(ctx context.Context, sessionID string) (*Session, error)

	// SetActiveRole records the role that was active when the turn ended.
	SetActiveRole(ctx context.Context, sessionID string, role agent.Role) error

	// AppendExchange appends a user/assistant exchange to the bounded
	// message history.
	AppendExchange(ctx context.Context, sessionID string, userMsg, assistantMsg string) error

	// History returns the most recent messages, oldest first.
	History(ctx context.Context, sessionID string) ([]Message, error)

	// Delete removes the session or returns ErrNotFound.
	Delete(ctx context.Context, sessionID string) error

	// List returns snapshots of all sessions, optionally filtered by user id.
	List(ctx context.Context, userID string) ([]*Session, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// CleanupExpired removes sessions idle longer than retention seconds.
	CleanupExpired(ctx context.Context, retentionSeconds int64) (int64, error)
}
