package main

import (
	"log/slog"

	"quaver/internal/config"
	"quaver/internal/pipeline"
	"quaver/internal/queue"
	"quaver/internal/workflow"
)

func buildStages(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
	return workflow.StageSet{
		Separation: pipeline.NewSeparationStage(cfg, store, logger),
		Pitch:      pipeline.NewPitchStage(cfg, store, logger),
		Quantize:   pipeline.NewQuantizeStage(cfg, store, logger),
		Encode:     pipeline.NewEncodeStage(cfg, store, logger),
		Render:     pipeline.NewRenderStage(cfg, store, logger),
	}
}
