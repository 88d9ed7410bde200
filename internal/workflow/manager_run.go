package workflow

import (
	"context"
	"errors"
	"time"

	"quaver/internal/logging"
	"quaver/internal/queue"
)

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.ClaimNextQueued(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("failed to claim next queued job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_claim_failed"),
			)
			m.sleep(ctx, m.retryInterval)
			continue
		}
		if job == nil {
			m.sleep(ctx, m.pollInterval)
			continue
		}

		if err := m.processJob(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// activeSlots returns the slots a job will actually run. Jobs that select no
// renderer skip the rendering slot entirely, which renormalizes progress
// over the remaining stages.
func (m *Manager) activeSlots(params queue.Params) []slot {
	slots := make([]slot, 0, len(m.slots))
	for _, s := range m.slots {
		if s.name == "rendering" && (params.Renderer == queue.RendererNone || s.handler == nil) {
			continue
		}
		slots = append(slots, s)
	}
	return slots
}
