package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/queue"
	"quaver/internal/separation"
	"quaver/internal/services"
	"quaver/internal/stage"
)

// SeparationStage isolates the melody stem of the uploaded recording.
type SeparationStage struct {
	core
	passthrough separation.Separator
	neural      separation.Separator
}

func NewSeparationStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *SeparationStage {
	return &SeparationStage{
		core:        newCore(cfg, store, logger, StageSeparating),
		passthrough: separation.NewPassthrough(),
		neural:      separation.NewNeuralCLI(cfg.Separation.Binary, nil),
	}
}

func (s *SeparationStage) Prepare(ctx context.Context, job *queue.Job) error {
	_, err := s.ensureJobDir(job.ID)
	return err
}

func (s *SeparationStage) Execute(ctx context.Context, job *queue.Job) error {
	upload, err := s.store.GetUpload(ctx, job.UploadID)
	if err != nil {
		return err
	}
	if upload == nil {
		return services.Wrap(services.ErrInvalidInput, StageSeparating, "input", fmt.Sprintf("upload %d not found", job.UploadID), nil)
	}

	separator := s.passthrough
	if job.Params.Separation == queue.SeparationNeural {
		separator = s.neural
	}
	outputPath := filepath.Join(s.cfg.JobDir(job.ID), "separated.wav")

	stageCtx, cancel := boundStage(ctx, s.cfg.Separation.TimeoutSec)
	defer cancel()
	if err := separator.Separate(stageCtx, upload.Path, outputPath); err != nil {
		return classifyTimeout(err, StageSeparating, s.cfg.Separation.TimeoutSec)
	}

	s.logger.Info("melody stem separated", logging.Args(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("mode", job.Params.Separation),
	)...)
	return s.persistArtifact(ctx, job.ID, queue.ArtifactSeparatedAudio, outputPath)
}

func (s *SeparationStage) HealthCheck(ctx context.Context) stage.Health {
	if s.cfg.Separation.Binary == "" {
		return stage.Healthy(StageSeparating)
	}
	if _, err := exec.LookPath(s.cfg.Separation.Binary); err != nil {
		return stage.Unhealthy(StageSeparating, fmt.Sprintf("separation binary %s not found", s.cfg.Separation.Binary))
	}
	return stage.Healthy(StageSeparating)
}
