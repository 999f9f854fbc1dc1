package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/usetownhall/townhall/plugin/ai/agent"
)

func TestCreateGeneratesAnonymousUser(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	created, err := svc.Create(ctx, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("session id must be set")
	}
	if !strings.HasPrefix(created.UserID, "anonymous-") {
		t.Errorf("user id = %q, want anonymous- prefix", created.UserID)
	}
	if created.ActiveRole != agent.RoleDialogue {
		t.Errorf("active role = %s, want dialogue", created.ActiveRole)
	}
	if created.Context == nil {
		t.Error("context must be initialized")
	}
}

func TestCreateKeepsExplicitUser(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	first, err := svc.Create(ctx, "citizen-42")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := svc.Create(ctx, "citizen-42")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if first.ID == second.ID {
		t.Error("sessions must get independent ids")
	}

	list, err := svc.List(ctx, "citizen-42")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected both sessions in the filtered list, got %d", len(list))
	}

	if list, _ := svc.List(ctx, "someone-else"); len(list) != 0 {
		t.Errorf("expected empty list for unknown user, got %d", len(list))
	}
}

func TestGetUnknownSession(t *testing.T) {
	svc := NewStore()

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchUpdatesMetadata(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "")
	for i := 0; i < 3; i++ {
		if _, err := svc.Touch(ctx, created.ID); err != nil {
			t.Fatalf("touch failed: %v", err)
		}
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.MessageCount != 3 {
		t.Errorf("message count = %d, want 3", got.MessageCount)
	}
	if got.LastActiveTs < created.LastActiveTs {
		t.Error("last active must not move backwards")
	}
}

func TestActiveRolePersistsAcrossReads(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "")

	if err := svc.SetActiveRole(ctx, created.ID, agent.RoleTriage); err != nil {
		t.Fatalf("set active role failed: %v", err)
	}

	got, _ := svc.Get(ctx, created.ID)
	if got.ActiveRole != agent.RoleTriage {
		t.Errorf("active role = %s, want triage", got.ActiveRole)
	}

	if err := svc.SetActiveRole(ctx, "missing", agent.RoleTriage); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown session, got %v", err)
	}
}

func TestDeleteUnknownSessionLeavesMapUnchanged(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "")

	if err := svc.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if svc.Count(ctx) != 1 {
		t.Errorf("session count = %d, want 1", svc.Count(ctx))
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if svc.Count(ctx) != 0 {
		t.Errorf("session count = %d, want 0", svc.Count(ctx))
	}
}

func TestHistoryWindow(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "")

	// Push past the window; only the newest exchanges survive.
	for i := 0; i < maxHistoryMessages; i++ {
		if err := svc.AppendExchange(ctx, created.ID, "question", "answer"); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	history, err := svc.History(ctx, created.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != maxHistoryMessages {
		t.Errorf("history length = %d, want %d", len(history), maxHistoryMessages)
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Error("history must alternate user/assistant")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "")
	_ = svc.AppendExchange(ctx, created.ID, "hi", "hello")

	got, _ := svc.Get(ctx, created.ID)
	got.Messages[0].Content = "mutated"
	got.MessageCount = 99

	again, _ := svc.Get(ctx, created.ID)
	if again.Messages[0].Content != "hi" {
		t.Error("mutating a returned session must not affect the store")
	}
	if again.MessageCount == 99 {
		t.Error("mutating returned metadata must not affect the store")
	}

	// The context pointer is deliberately shared.
	if got.Context != again.Context {
		t.Error("context must be the same shared instance")
	}
}

func TestConcurrentTouches(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "")

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Touch(ctx, created.ID)
		}()
	}
	wg.Wait()

	got, _ := svc.Get(ctx, created.ID)
	if got.MessageCount != writers {
		t.Errorf("message count = %d, want %d (lost update)", got.MessageCount, writers)
	}
}
