package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

var _ driven.JobStore = (*JobStore)(nil)

// JobStore keeps maintenance job state and runs in memory.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[domain.JobKind]domain.JobState
	runs map[domain.JobKind][]domain.JobRun // oldest first
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[domain.JobKind]domain.JobState),
		runs: make(map[domain.JobKind][]domain.JobRun),
	}
}

// Job returns nil for a job never saved.
func (s *JobStore) Job(_ context.Context, kind domain.JobKind) (*domain.JobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[kind]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

// Jobs returns every saved job ordered by kind.
func (s *JobStore) Jobs(_ context.Context) ([]domain.JobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.JobState, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Kind < out[k].Kind })
	return out, nil
}

// SaveJob replaces the state for job.Kind.
func (s *JobStore) SaveJob(_ context.Context, job *domain.JobState) error {
	if job == nil || job.Kind == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Kind] = *job
	return nil
}

// RecordRun appends run, keeping each job's runs in start order.
func (s *JobStore) RecordRun(_ context.Context, run *domain.JobRun) error {
	if run == nil || run.Kind == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := append(s.runs[run.Kind], *run)
	sort.SliceStable(runs, func(i, k int) bool { return runs[i].Started.Before(runs[k].Started) })
	s.runs[run.Kind] = runs
	return nil
}

// Runs returns up to limit runs of kind, newest first.
func (s *JobStore) Runs(_ context.Context, kind domain.JobKind, limit int) ([]domain.JobRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.runs[kind]
	n := len(runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.JobRun, 0, n)
	for i := len(runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, runs[i])
	}
	return out, nil
}

// PruneRuns keeps the newest keep runs per job.
func (s *JobStore) PruneRuns(_ context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for kind, runs := range s.runs {
		if drop := len(runs) - keep; drop > 0 {
			s.runs[kind] = append([]domain.JobRun(nil), runs[drop:]...)
			removed += drop
		}
	}
	return removed, nil
}
