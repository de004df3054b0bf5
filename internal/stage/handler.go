package stage

import (
	"context"

	"highlighter/internal/queue"
)

// Handler is what the workflow manager needs from each pipeline stage.
// Prepare runs before the job is marked as processing and may adjust its
// progress fields. Execute does the work; a nil error advances the job.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
