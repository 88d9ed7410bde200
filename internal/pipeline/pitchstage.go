package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/pitch"
	"quaver/internal/queue"
	"quaver/internal/services"
	"quaver/internal/stage"
)

// PitchStage extracts the fundamental-frequency contour from the separated
// stem and persists it as the pitch-events artifact.
type PitchStage struct {
	core
	tracker pitch.Tracker
}

func NewPitchStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *PitchStage {
	var tracker pitch.Tracker = pitch.NewAutocorrelation()
	if cfg.Pitch.Binary != "" {
		tracker = pitch.NewCLI(cfg.Pitch.Binary, nil)
	}
	return &PitchStage{core: newCore(cfg, store, logger, StageExtractingPitch), tracker: tracker}
}

func (p *PitchStage) Prepare(ctx context.Context, job *queue.Job) error {
	_, err := p.ensureJobDir(job.ID)
	return err
}

func (p *PitchStage) Execute(ctx context.Context, job *queue.Job) error {
	input, err := p.requireArtifact(ctx, job.ID, queue.ArtifactSeparatedAudio, StageExtractingPitch)
	if err != nil {
		return err
	}

	stageCtx, cancel := boundStage(ctx, p.cfg.Pitch.TimeoutSec)
	defer cancel()
	events, err := p.tracker.Track(stageCtx, input.Path)
	if err != nil {
		return classifyTimeout(err, StageExtractingPitch, p.cfg.Pitch.TimeoutSec)
	}
	if events == nil {
		events = []pitch.Event{}
	}

	outputPath := filepath.Join(p.cfg.JobDir(job.ID), "pitch_events.json")
	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrEncoding, StageExtractingPitch, "marshal", "serialize pitch events", err)
	}
	if err := os.WriteFile(outputPath, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write pitch events: %w", err)
	}

	p.logger.Info("pitch contour extracted", logging.Args(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Int("events", len(events)),
	)...)
	return p.persistArtifact(ctx, job.ID, queue.ArtifactPitchEvents, outputPath)
}

func (p *PitchStage) HealthCheck(ctx context.Context) stage.Health {
	if p.cfg.Pitch.Binary == "" {
		return stage.Healthy(StageExtractingPitch)
	}
	if _, err := exec.LookPath(p.cfg.Pitch.Binary); err != nil {
		return stage.Unhealthy(StageExtractingPitch, fmt.Sprintf("pitch binary %s not found", p.cfg.Pitch.Binary))
	}
	return stage.Healthy(StageExtractingPitch)
}
