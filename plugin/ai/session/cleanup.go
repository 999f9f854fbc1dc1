package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultCleanupInterval is the default interval between cleanup runs.
const DefaultCleanupInterval = 1 * time.Hour

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	Retention       time.Duration // Idle duration before a session is evicted (0 disables cleanup)
	CleanupInterval time.Duration // Interval between cleanup runs (default: 1h)
}

// CleanupJob handles periodic eviction of idle sessions.
type CleanupJob struct {
	sessionSvc Service
	config     CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(svc Service, config CleanupConfig) *CleanupJob {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}
	return &CleanupJob{
		sessionSvc: svc,
		config:     config,
	}
}

// Start begins the periodic cleanup job.
// This method is non-blocking and starts the cleanup in a goroutine.
// With zero retention the job is a no-op and does not start.
func (j *CleanupJob) Start(ctx context.Context) {
	if j.config.Retention <= 0 {
		slog.Info("session cleanup disabled (no retention configured)")
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("session cleanup job started",
		"retention", j.config.Retention,
		"interval", j.config.CleanupInterval)
}

// Stop stops the cleanup job.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	close(j.stopChan)
	j.running = false

	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.sessionSvc.CleanupExpired(ctx, int64(j.config.Retention.Seconds()))
}

// IsRunning returns whether the cleanup job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			if deleted, err := j.RunOnce(ctx); err != nil {
				slog.Error("session cleanup failed", "error", err)
			} else if deleted > 0 {
				slog.Info("session cleanup completed", "deleted", deleted)
			}
		}
	}
}
