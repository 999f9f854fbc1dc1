package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates turn-level counters, broken down by role.
type Metrics struct {
	mu sync.Mutex

	turnTotal    atomic.Int64
	turnFailed   atomic.Int64
	streamChunks atomic.Int64

	roleMetrics map[string]*RoleMetrics
}

// RoleMetrics represents metrics for a single role.
type RoleMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		roleMetrics: make(map[string]*RoleMetrics),
	}
}

// Global metrics instance.
var globalMetrics = NewMetrics()

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordTurn records a turn starting at the given role.
func (m *Metrics) RecordTurn(role string) {
	m.turnTotal.Add(1)
	m.getRoleMetrics(role).executionCount.Add(1)
}

// RecordFailure records a failed turn.
func (m *Metrics) RecordFailure(role string) {
	m.turnFailed.Add(1)
	m.getRoleMetrics(role).errorCount.Add(1)
}

// RecordDuration records a turn duration.
func (m *Metrics) RecordDuration(role string, duration time.Duration) {
	m.getRoleMetrics(role).totalDuration.Add(duration.Milliseconds())
}

// RecordStreamChunk records a stream chunk sent to a caller.
func (m *Metrics) RecordStreamChunk() {
	m.streamChunks.Add(1)
}

// GetTurnTotal returns the total number of turns.
func (m *Metrics) GetTurnTotal() int64 {
	return m.turnTotal.Load()
}

// GetTurnFailed returns the total number of failed turns.
func (m *Metrics) GetTurnFailed() int64 {
	return m.turnFailed.Load()
}

// GetStreamChunks returns the total number of stream chunks sent.
func (m *Metrics) GetStreamChunks() int64 {
	return m.streamChunks.Load()
}

func (m *Metrics) getRoleMetrics(role string) *RoleMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	rm, ok := m.roleMetrics[role]
	if !ok {
		rm = &RoleMetrics{}
		m.roleMetrics[role] = rm
	}
	return rm
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.turnTotal.Store(0)
	m.turnFailed.Store(0)
	m.streamChunks.Store(0)

	m.mu.Lock()
	m.roleMetrics = make(map[string]*RoleMetrics)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	roleSnapshots := make(map[string]*RoleMetricsSnapshot, len(m.roleMetrics))
	for role, rm := range m.roleMetrics {
		count := rm.executionCount.Load()
		total := rm.totalDuration.Load()
		var avg int64
		if count > 0 {
			avg = total / count
		}
		roleSnapshots[role] = &RoleMetricsSnapshot{
			ExecutionCount:  count,
			TotalDuration:   total,
			ErrorCount:      rm.errorCount.Load(),
			AverageDuration: avg,
		}
	}

	return &MetricsSnapshot{
		TurnTotal:    m.turnTotal.Load(),
		TurnFailed:   m.turnFailed.Load(),
		StreamChunks: m.streamChunks.Load(),
		RoleMetrics:  roleSnapshots,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	TurnTotal    int64
	TurnFailed   int64
	StreamChunks int64
	RoleMetrics  map[string]*RoleMetricsSnapshot
}

// RoleMetricsSnapshot represents metrics for a specific role.
type RoleMetricsSnapshot struct {
	ExecutionCount  int64
	TotalDuration   int64
	ErrorCount      int64
	AverageDuration int64
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.TurnTotal == 0 {
		return 100.0
	}
	return float64(s.TurnTotal-s.TurnFailed) / float64(s.TurnTotal) * 100.0
}
