package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"quaver/internal/config"
	"quaver/internal/logging"
	"quaver/internal/queue"
	"quaver/internal/services"
)

// Stage name constants shared between handlers, log fields, and error
// details.
const (
	StageSeparating      = "separating"
	StageExtractingPitch = "extracting-pitch"
	StageQuantizing      = "quantizing"
	StageEncoding        = "encoding-notation"
	StageRendering       = "rendering"
)

// core carries the dependencies every stage handler shares.
type core struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

func newCore(cfg *config.Config, store *queue.Store, logger *slog.Logger, component string) core {
	if logger == nil {
		logger = logging.NewNop()
	}
	return core{cfg: cfg, store: store, logger: logging.NewComponentLogger(logger, component)}
}

// ensureJobDir creates the per-job artifact directory.
func (c core) ensureJobDir(jobID int64) (string, error) {
	dir := c.cfg.JobDir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create job directory %s: %w", dir, err)
	}
	return dir, nil
}

// persistArtifact records an already-written file in the queue store. Every
// stage calls this before returning success so progress never runs ahead of
// durable outputs.
func (c core) persistArtifact(ctx context.Context, jobID int64, kind queue.ArtifactKind, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("artifact %s missing on disk: %w", path, err)
	}
	if _, err := c.store.AddArtifact(ctx, jobID, kind, path); err != nil {
		return err
	}
	c.logger.Debug("artifact persisted", logging.Args(
		logging.Int64(logging.FieldJobID, jobID),
		logging.String(logging.FieldArtifactKind, string(kind)),
		logging.String("path", path),
	)...)
	return nil
}

// requireArtifact loads the newest artifact of a kind, failing when a prior
// stage did not leave one behind.
func (c core) requireArtifact(ctx context.Context, jobID int64, kind queue.ArtifactKind, stage string) (*queue.Artifact, error) {
	artifact, err := c.store.ArtifactByKind(ctx, jobID, kind)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, services.Wrap(services.ErrEncoding, stage, "input", fmt.Sprintf("no %s artifact recorded for job", kind), nil)
	}
	return artifact, nil
}

// boundStage applies a per-stage wall clock limit when one is configured.
func boundStage(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}

// classifyTimeout maps a context deadline hit inside a stage to the stage
// timeout failure kind. Other errors pass through untouched.
func classifyTimeout(err error, stage string, seconds int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrStageTimeout, stage, "execute", fmt.Sprintf("stage exceeded %ds limit", seconds), err)
	}
	return err
}
