package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/notation"
	"quaver/internal/queue"
	"quaver/internal/services"
	"quaver/internal/stage"
)

// EncodeStage turns the quantized sequence into a MusicXML document. An
// empty sequence still encodes; every finished job has a notation document.
type EncodeStage struct {
	core
}

func NewEncodeStage(cfg *config.Config, store *queue.Store, logger *slog.Logger) *EncodeStage {
	return &EncodeStage{core: newCore(cfg, store, logger, StageEncoding)}
}

func (e *EncodeStage) Prepare(ctx context.Context, job *queue.Job) error {
	_, err := e.ensureJobDir(job.ID)
	return err
}

func (e *EncodeStage) Execute(ctx context.Context, job *queue.Job) error {
	input, err := e.requireArtifact(ctx, job.ID, queue.ArtifactQuantizedEvents, StageEncoding)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(input.Path)
	if err != nil {
		return fmt.Errorf("read quantized events: %w", err)
	}
	seq, err := notation.ParseSequence(raw)
	if err != nil {
		return services.Wrap(services.ErrEncoding, StageEncoding, "parse", "malformed quantized sequence artifact", err)
	}

	document, err := notation.Encode(seq)
	if err != nil {
		return services.Wrap(services.ErrEncoding, StageEncoding, "encode", "encode musicxml document", err)
	}

	outputPath := filepath.Join(e.cfg.JobDir(job.ID), "score.musicxml")
	if err := os.WriteFile(outputPath, document, 0o644); err != nil {
		return fmt.Errorf("write notation document: %w", err)
	}

	e.logger.Info("notation encoded", logging.Args(
		logging.Int64(logging.FieldJobID, job.ID),
		logging.Int("notes", len(seq.Notes)),
	)...)
	return e.persistArtifact(ctx, job.ID, queue.ArtifactNotationDocument, outputPath)
}

func (e *EncodeStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(StageEncoding)
}
