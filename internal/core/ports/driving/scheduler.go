package driving

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// Scheduler runs due maintenance jobs in the background.
type Scheduler interface {
	// Start blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for in-flight jobs to finish.
	Stop() error
}

// JobService inspects and triggers maintenance jobs on demand.
type JobService interface {
	// Jobs returns the state of every configured job.
	Jobs(ctx context.Context) ([]domain.JobState, error)

	// History returns up to limit runs of kind, newest first.
	History(ctx context.Context, kind domain.JobKind, limit int) ([]domain.JobRun, error)

	// Run executes kind now, records the run and returns it. A failed job
	// is reported in the run, not as an error.
	Run(ctx context.Context, kind domain.JobKind) (domain.JobRun, error)
}
