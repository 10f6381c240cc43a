package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/logger"
)

var (
	_ driving.Scheduler  = (*Scheduler)(nil)
	_ driving.JobService = (*Scheduler)(nil)
)

// runRetention is the number of runs per job that survive JobPruneRuns.
const runRetention = 100

// IndexMaintainer is the index work maintenance jobs drive.
type IndexMaintainer interface {
	// Rebuild re-classifies and re-indexes every pair.
	Rebuild(ctx context.Context) (int, error)
	// Repair rebuilds only when the live index has drifted from the store.
	Repair(ctx context.Context) (int, error)
}

// Scheduler runs maintenance jobs on their configured cadence and on
// demand. A job never runs twice at once.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.JobStore
	index  IndexMaintainer
	tick   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	busy    map[domain.JobKind]bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. It does nothing until Start or Run.
func NewScheduler(config domain.SchedulerConfig, store driven.JobStore, index IndexMaintainer) *Scheduler {
	return &Scheduler{
		config: config,
		store:  store,
		index:  index,
		tick:   time.Minute,
		now:    time.Now,
		busy:   make(map[domain.JobKind]bool),
	}
}

// Enabled reports whether background runs are switched on.
func (s *Scheduler) Enabled() bool {
	return s.config.Enabled
}

// Start syncs job schedules with the configuration, then checks for due
// jobs every tick until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.syncJobs(ctx); err != nil {
		logger.Warn("scheduler: %v", err)
	}

	s.runDue(ctx)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for in-flight jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// syncJobs saves the configured cadence of every job. A changed cadence
// restarts the job's clock.
func (s *Scheduler) syncJobs(ctx context.Context) error {
	for _, kind := range domain.MaintenanceJobs() {
		sched := s.config.Schedule(kind)
		job, err := s.store.Job(ctx, kind)
		if err != nil {
			return fmt.Errorf("loading job %s: %w", kind, err)
		}
		if job == nil {
			if !sched.Enabled {
				continue
			}
			job = &domain.JobState{Kind: kind}
		}
		if job.Every != sched.Every {
			job.Every = sched.Every
			job.NextRun = s.now().Add(sched.Every)
		}
		job.Enabled = sched.Enabled && sched.Every > 0
		if err := s.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("saving job %s: %w", kind, err)
		}
	}
	return nil
}

// runDue launches every due job in the background.
func (s *Scheduler) runDue(ctx context.Context) {
	jobs, err := s.store.Jobs(ctx)
	if err != nil {
		logger.Warn("scheduler: listing jobs: %v", err)
		return
	}
	now := s.now()
	for i := range jobs {
		job := jobs[i]
		if !job.Due(now) || !s.claim(job.Kind) {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release(job.Kind)
			s.finish(ctx, &job, s.execute(ctx, job.Kind))
		}()
	}
}

func (s *Scheduler) claim(kind domain.JobKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[kind] {
		return false
	}
	s.busy[kind] = true
	return true
}

func (s *Scheduler) release(kind domain.JobKind) {
	s.mu.Lock()
	delete(s.busy, kind)
	s.mu.Unlock()
}

// execute does the job's work and times it.
func (s *Scheduler) execute(ctx context.Context, kind domain.JobKind) domain.JobRun {
	run := domain.JobRun{Kind: kind, Started: s.now()}

	var err error
	switch kind {
	case domain.JobReindex:
		if s.index != nil {
			run.Pairs, err = s.index.Rebuild(ctx)
		}
	case domain.JobIndexCheck:
		if s.index != nil {
			run.Pairs, err = s.index.Repair(ctx)
		}
	case domain.JobPruneRuns:
		run.Pairs, err = s.store.PruneRuns(ctx, runRetention)
	default:
		err = fmt.Errorf("%w: unknown job %q", domain.ErrInvalidInput, kind)
	}

	run.Finished = s.now()
	if err != nil {
		run.Err = err.Error()
	}
	return run
}

// finish records run against job. Store failures are logged only.
func (s *Scheduler) finish(ctx context.Context, job *domain.JobState, run domain.JobRun) {
	job.Record(run)

	entry := logger.WithFields(map[string]any{
		"job":      string(run.Kind),
		"pairs":    run.Pairs,
		"duration": run.Duration().String(),
	})
	if run.OK() {
		entry.Info("maintenance job finished")
	} else {
		entry.Warnf("maintenance job failed: %s", run.Err)
	}

	if err := s.store.SaveJob(ctx, job); err != nil {
		logger.Warn("scheduler: saving job %s: %v", job.Kind, err)
	}
	if err := s.store.RecordRun(ctx, &run); err != nil {
		logger.Warn("scheduler: recording run of %s: %v", job.Kind, err)
	}
}

// Jobs returns every built-in job. Jobs never saved are reported with
// their configured cadence.
func (s *Scheduler) Jobs(ctx context.Context) ([]domain.JobState, error) {
	saved, err := s.store.Jobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	byKind := make(map[domain.JobKind]domain.JobState, len(saved))
	for _, j := range saved {
		byKind[j.Kind] = j
	}

	out := make([]domain.JobState, 0, len(domain.MaintenanceJobs()))
	for _, kind := range domain.MaintenanceJobs() {
		if j, ok := byKind[kind]; ok {
			out = append(out, j)
			continue
		}
		sched := s.config.Schedule(kind)
		out = append(out, domain.JobState{Kind: kind, Every: sched.Every, Enabled: sched.Enabled})
	}
	return out, nil
}

// History returns recent runs of kind, newest first.
func (s *Scheduler) History(ctx context.Context, kind domain.JobKind, limit int) ([]domain.JobRun, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown job %q", domain.ErrInvalidInput, kind)
	}
	if limit <= 0 {
		limit = 10
	}
	return s.store.Runs(ctx, kind, limit)
}

// Run executes kind immediately, whether or not it is due.
func (s *Scheduler) Run(ctx context.Context, kind domain.JobKind) (domain.JobRun, error) {
	if !kind.Valid() {
		return domain.JobRun{}, fmt.Errorf("%w: unknown job %q", domain.ErrInvalidInput, kind)
	}
	if !s.claim(kind) {
		return domain.JobRun{}, fmt.Errorf("%s: %w", kind, domain.ErrJobRunning)
	}
	defer s.release(kind)

	job, err := s.store.Job(ctx, kind)
	if err != nil {
		return domain.JobRun{}, fmt.Errorf("loading job %s: %w", kind, err)
	}
	if job == nil {
		sched := s.config.Schedule(kind)
		job = &domain.JobState{Kind: kind, Every: sched.Every, Enabled: sched.Enabled}
	}

	run := s.execute(ctx, kind)
	s.finish(ctx, job, run)
	return run, nil
}
