package driven

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// JobStore persists maintenance job state and run history so schedules
// survive restarts.
type JobStore interface {
	// Job returns nil and no error for a job that was never saved.
	Job(ctx context.Context, kind domain.JobKind) (*domain.JobState, error)

	// Jobs returns every saved job ordered by kind.
	Jobs(ctx context.Context) ([]domain.JobState, error)

	// SaveJob creates or replaces the state for job.Kind.
	SaveJob(ctx context.Context, job *domain.JobState) error

	// RecordRun appends a run to the history.
	RecordRun(ctx context.Context, run *domain.JobRun) error

	// Runs returns up to limit runs of kind, newest first.
	Runs(ctx context.Context, kind domain.JobKind, limit int) ([]domain.JobRun, error)

	// PruneRuns keeps the newest keep runs per job and reports how many
	// were removed.
	PruneRuns(ctx context.Context, keep int) (int, error)
}
