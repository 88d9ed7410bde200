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
	"quaver/internal/render"
	"quaver/internal/stage"
)

// RenderStage produces a fixed-layout score through an external engraver.
// Failures here are non-fatal: the manager records a warning and the job
// still finishes with its notation document.
type RenderStage struct {
	core
}

func NewRenderStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *RenderStage {
	return &RenderStage{core: newCore(cfg, store, logger, StageRendering)}
}

func (r *RenderStage) Prepare(ctx context.Context, job *queue.Job) error {
	_, err := r.ensureJobDir(job.ID)
	return err
}

func (r *RenderStage) Execute(ctx context.Context, job *queue.Job) error {
	renderer := render.ForParams(job.Params, r.cfg.Render.MuseScoreBinary, r.cfg.Render.VerovioBinary)
	if renderer == nil {
		return nil
	}
	input, err := r.requireArtifact(ctx, job.ID, queue.ArtifactNotationDocument, StageRendering)
	if err != nil {
		return err
	}
	outputPath := filepath.Join(r.cfg.JobDir(job.ID), renderer.OutputName())

	stageCtx, cancel := boundStage(ctx, r.cfg.Render.TimeoutSec)
	defer cancel()
	if err := renderer.Render(stageCtx, input.Path, outputPath); err != nil {
		return err
	}

	r.logger.Info("score rendered", logging.Args(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldArtifactKind, string(renderer.OutputKind())),
	)...)
	return r.persistArtifact(ctx, job.ID, renderer.OutputKind(), outputPath)
}

func (r *RenderStage) HealthCheck(ctx context.Context) stage.Health {
	var missing []string
	for _, binary := range []string{r.cfg.Render.MuseScoreBinary, r.cfg.Render.VerovioBinary} {
		if binary == "" {
			continue
		}
		if _, err := exec.LookPath(binary); err != nil {
			missing = append(missing, binary)
		}
	}
	if len(missing) > 0 {
		return stage.Unhealthy(StageRendering, fmt.Sprintf("renderer binaries not found: %v", missing))
	}
	return stage.Healthy(StageRendering)
}
