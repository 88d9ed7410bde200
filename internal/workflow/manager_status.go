package workflow

import (
	"context"

	"quaver/internal/queue"
	"quaver/internal/stage"
)

// StatusSummary reports manager liveness and aggregate queue counts.
type StatusSummary struct {
	Running   bool
	LastError string
	LastJobID int64
	Queue     queue.HealthSummary
}

// Status snapshots the manager and queue state.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:   m.running,
		LastJobID: m.lastJobID,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	if health, err := m.store.Health(ctx); err == nil {
		summary.Queue = health
	}
	return summary
}

// Health runs every configured stage's readiness probe.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	results := make([]stage.Health, 0, len(m.slots))
	for _, s := range m.slots {
		if s.handler == nil {
			continue
		}
		results = append(results, s.handler.HealthCheck(ctx))
	}
	return results
}
