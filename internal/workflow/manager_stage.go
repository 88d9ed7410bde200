package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"quaver/internal/logging"
	"quaver/internal/queue"
	"quaver/internal/services"
	"quaver/internal/stage"
)

func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	requestID := uuid.NewString()
	jobCtx := services.WithRequestID(services.WithJobID(ctx, job.ID), requestID)
	jobLogger := logging.WithContext(jobCtx, m.logger)

	m.setLastJob(job.ID)
	jobLogger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.Int64("upload_id", job.UploadID),
	)
	if err := m.store.AppendLog(jobCtx, job.ID, queue.LogInfo, "job started"); err != nil {
		jobLogger.Warn("failed to append job log", logging.Error(err))
	}

	slots := m.activeSlots(job.Params)
	start := time.Now()
	for i, s := range slots {
		if err := m.executeSlot(jobCtx, jobLogger, job, s); err != nil {
			if errors.Is(err, context.Canceled) {
				jobLogger.Debug("job interrupted by shutdown")
				return err
			}
			if !services.Fatal(err) {
				m.recordNonFatal(jobCtx, jobLogger, job, s.name, err)
				continue
			}
			m.failJob(jobCtx, jobLogger, job, s.name, err)
			return err
		}
		if err := m.store.SetProgress(jobCtx, job.ID, progressAfter(slots, i)); err != nil {
			jobLogger.Error("failed to persist progress", logging.Error(err))
			m.setLastError(err)
			return err
		}
	}

	if err := m.store.MarkDone(jobCtx, job.ID); err != nil {
		jobLogger.Error("failed to mark job done", logging.Error(err))
		m.setLastError(err)
		return err
	}
	if err := m.store.AppendLog(jobCtx, job.ID, queue.LogInfo, "job finished"); err != nil {
		jobLogger.Warn("failed to append job log", logging.Error(err))
	}
	jobLogger.Info("job finished",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("job_duration", time.Since(start)),
	)
	return nil
}

func (m *Manager) executeSlot(ctx context.Context, jobLogger *slog.Logger, job *queue.Job, s slot) error {
	stageCtx := services.WithStage(ctx, s.name)
	stageCtx, cancel := m.boundStageContext(stageCtx)
	defer cancel()
	stageLogger := logging.WithContext(stageCtx, m.logger)

	stageStart := time.Now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := s.handler.Prepare(stageCtx, job); err != nil {
		return m.classifyStageError(stageCtx, s.name, err)
	}
	execErr := m.executeWithHeartbeat(stageCtx, s.handler, job)
	if execErr != nil {
		return m.classifyStageError(stageCtx, s.name, execErr)
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

func (m *Manager) boundStageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Workflow.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(m.cfg.Workflow.StageTimeout)*time.Second)
}

// classifyStageError maps a stage-context deadline hit to the stage timeout
// failure kind. Cancellation from shutdown passes through so the job is
// simply abandoned mid-flight rather than failed.
func (m *Manager) classifyStageError(ctx context.Context, stageName string, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, services.ErrStageTimeout) {
		return services.Wrap(services.ErrStageTimeout, stageName, "execute",
			fmt.Sprintf("stage exceeded %ds limit", m.cfg.Workflow.StageTimeout), err)
	}
	return err
}

// executeWithHeartbeat runs the stage while a side loop refreshes the job
// heartbeat for observability.
func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeatLoop(hbCtx, &hbWG, job.ID)

	execErr := handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) heartbeatLoop(ctx context.Context, wg *sync.WaitGroup, jobID int64) {
	defer wg.Done()
	interval := time.Duration(m.cfg.Workflow.HeartbeatInterval) * time.Second
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.store.UpdateHeartbeat(ctx, jobID); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Warn("heartbeat update failed",
					logging.Int64(logging.FieldJobID, jobID),
					logging.Error(err),
				)
			}
		}
	}
}

// recordNonFatal logs a degraded stage (today only rendering) without
// touching job status. The job keeps going and still finishes done.
func (m *Manager) recordNonFatal(ctx context.Context, jobLogger *slog.Logger, job *queue.Job, stageName string, err error) {
	jobLogger.Warn("stage degraded, continuing",
		logging.String(logging.FieldStage, stageName),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.Error(err),
	)
	message := fmt.Sprintf("%s degraded: %v", stageName, err)
	if logErr := m.store.AppendLog(ctx, job.ID, queue.LogWarning, message); logErr != nil {
		jobLogger.Warn("failed to append job log", logging.Error(logErr))
	}
}

func (m *Manager) failJob(ctx context.Context, jobLogger *slog.Logger, job *queue.Job, stageName string, err error) {
	kind := services.Kind(err)
	message := err.Error()

	if markErr := m.store.MarkFailed(ctx, job.ID, message); markErr != nil {
		jobLogger.Error("failed to mark job failed", logging.Error(markErr))
	}
	if logErr := m.store.AppendLog(ctx, job.ID, queue.LogError, message); logErr != nil {
		jobLogger.Warn("failed to append job log", logging.Error(logErr))
	}
	jobLogger.Error("job failed",
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String(logging.FieldStage, stageName),
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(err),
	)
	m.setLastError(err)
}
