package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/notation"
	"quaver/internal/pitch"
	"quaver/internal/queue"
	"quaver/internal/services"
	"quaver/internal/stage"
)

// QuantizeStage aligns the pitch contour to the beat grid and persists the
// resulting sequence as the quantized-events artifact.
type QuantizeStage struct {
	core
}

func NewQuantizeStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *QuantizeStage {
	return &QuantizeStage{core: newCore(cfg, store, logger, StageQuantizing)}
}

func (q *QuantizeStage) Prepare(ctx context.Context, job *queue.Job) error {
	_, err := q.ensureJobDir(job.ID)
	return err
}

func (q *QuantizeStage) Execute(ctx context.Context, job *queue.Job) error {
	input, err := q.requireArtifact(ctx, job.ID, queue.ArtifactPitchEvents, StageQuantizing)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(input.Path)
	if err != nil {
		return fmt.Errorf("read pitch events: %w", err)
	}
	var events []pitch.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return services.Wrap(services.ErrEncoding, StageQuantizing, "parse", "malformed pitch events artifact", err)
	}

	seq := notation.Quantize(events, job.Params)

	outputPath := filepath.Join(q.cfg.JobDir(job.ID), "quantized_events.json")
	encoded, err := seq.Marshal()
	if err != nil {
		return services.Wrap(services.ErrEncoding, StageQuantizing, "marshal", "serialize quantized sequence", err)
	}
	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write quantized events: %w", err)
	}

	q.logger.Info("melody quantized", logging.Args(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Int("notes", len(seq.Notes)),
		logging.Float64("tempo_qpm", seq.TempoQPM),
		logging.String("key", seq.Key),
	)...)
	return q.persistArtifact(ctx, job.ID, queue.ArtifactQuantizedEvents, outputPath)
}

func (q *QuantizeStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(StageQuantizing)
}
