package session

import (
	"context"
	"testing"
	"time"
)

func TestCleanupExpired(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	stale, _ := svc.Create(ctx, "")
	fresh, _ := svc.Create(ctx, "")

	// Age the first session past the cutoff.
	impl := svc.(*sessionStore)
	impl.mu.Lock()
	impl.sessions[stale.ID].LastActiveTs = time.Now().Add(-2 * time.Hour).Unix()
	impl.mu.Unlock()

	deleted, err := svc.CleanupExpired(ctx, int64(time.Hour.Seconds()))
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if _, err := svc.Get(ctx, stale.ID); err == nil {
		t.Error("stale session must be evicted")
	}
	if _, err := svc.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session must survive: %v", err)
	}
}

func TestCleanupZeroRetentionIsNoop(t *testing.T) {
	svc := NewStore()
	ctx := context.Background()

	_, _ = svc.Create(ctx, "")

	deleted, err := svc.CleanupExpired(ctx, 0)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if svc.Count(ctx) != 1 {
		t.Error("zero retention must not evict anything")
	}
}

func TestCleanupJobLifecycle(t *testing.T) {
	svc := NewStore()

	job := NewCleanupJob(svc, CleanupConfig{
		Retention:       time.Hour,
		CleanupInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job.Start(ctx)
	if !job.IsRunning() {
		t.Fatal("job must be running after start")
	}

	// Second start is idempotent.
	job.Start(ctx)

	job.Stop()
	if job.IsRunning() {
		t.Fatal("job must not be running after stop")
	}

	// Second stop is idempotent.
	job.Stop()
}

func TestCleanupJobDisabledWithoutRetention(t *testing.T) {
	svc := NewStore()

	job := NewCleanupJob(svc, CleanupConfig{})
	job.Start(context.Background())

	if job.IsRunning() {
		t.Fatal("job must not start without retention configured")
	}
}
