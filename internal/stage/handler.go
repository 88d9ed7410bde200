package stage

import (
	"context"

	"quaver/internal/queue"
)

// Handler describes the contract the workflow manager needs from each
// pipeline stage. Execute must persist any artifact it produces before
// returning: the manager only advances progress after a successful return,
// which keeps persisted progress from ever referencing a missing artifact.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
