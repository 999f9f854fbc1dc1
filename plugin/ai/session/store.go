package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/usetownhall/townhall/plugin/ai/agent"
)

// maxHistoryMessages bounds the per-session history window threaded
// into prompts. Older exchanges are dropped, not summarized.
const maxHistoryMessages = 50

// sessionStore implements Service with a process-wide concurrent map.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty in-memory session store.
func NewStore() Service {
	return &sessionStore{
		sessions: make(map[string]*Session),
	}
}

func (s *sessionStore) Create(_ context.Context, userID string) (*Session, error) {
	if userID == "" {
		userID = "anonymous-" + shortuuid.New()
	}

	now := time.Now().Unix()
	session := &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		GroupID:      shortuuid.New(),
		CreatedTs:    now,
		LastActiveTs: now,
		ActiveRole:   agent.RoleDialogue,
		Context:      agent.NewTownContext(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	slog.Info("session created", "session_id", session.ID, "user_id", userID)
	return snapshot(session), nil
}

func (s *sessionStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(session), nil
}

func (s *sessionStore) Touch(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	session.MessageCount++
	session.LastActiveTs = time.Now().Unix()
	return snapshot(session), nil
}

func (s *sessionStore) SetActiveRole(_ context.Context, sessionID string, role agent.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.ActiveRole = role
	return nil
}

func (s *sessionStore) AppendExchange(_ context.Context, sessionID string, userMsg, assistantMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.Messages = append(session.Messages,
		Message{Role: "user", Content: userMsg},
		Message{Role: "assistant", Content: assistantMsg},
	)
	if len(session.Messages) > maxHistoryMessages {
		session.Messages = session.Messages[len(session.Messages)-maxHistoryMessages:]
	}
	return nil
}

func (s *sessionStore) History(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	history := make([]Message, len(session.Messages))
	copy(history, session.Messages)
	return history, nil
}

func (s *sessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	slog.Info("session deleted", "session_id", sessionID)
	return nil
}

func (s *sessionStore) List(_ context.Context, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if userID != "" && session.UserID != userID {
			continue
		}
		list = append(list, snapshot(session))
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastActiveTs > list[j].LastActiveTs
	})
	return list, nil
}

func (s *sessionStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *sessionStore) CleanupExpired(_ context.Context, retentionSeconds int64) (int64, error) {
	if retentionSeconds <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Unix() - retentionSeconds

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, session := range s.sessions {
		if session.LastActiveTs < cutoff {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// snapshot copies session metadata so readers never observe a
// concurrent mutation. The context pointer is shared: TownContext is
// internally synchronized.
func snapshot(session *Session) *Session {
	copied := *session
	copied.Messages = append([]Message(nil), session.Messages...)
	return &copied
}

var _ Service = (*sessionStore)(nil)
