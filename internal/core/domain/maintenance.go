package domain

import "time"

// JobKind names a knowledge-base maintenance job.
type JobKind string

const (
	// JobReindex re-classifies every pair and rebuilds the postings.
	JobReindex JobKind = "reindex"

	// JobIndexCheck compares the live index with the store and rebuilds
	// only when they disagree.
	JobIndexCheck JobKind = "index_check"

	// JobPruneRuns trims the recorded run history.
	JobPruneRuns JobKind = "prune_runs"
)

// MaintenanceJobs lists the built-in jobs in display order.
func MaintenanceJobs() []JobKind {
	return []JobKind{JobReindex, JobIndexCheck, JobPruneRuns}
}

// Valid reports whether k is a built-in job.
func (k JobKind) Valid() bool {
	for _, j := range MaintenanceJobs() {
		if j == k {
			return true
		}
	}
	return false
}

// JobSchedule is the configured cadence of one job.
type JobSchedule struct {
	Enabled bool
	Every   time.Duration
}

// SchedulerConfig switches background maintenance on and sets each job's
// cadence.
type SchedulerConfig struct {
	Enabled bool
	Jobs    map[JobKind]JobSchedule
}

// Schedule returns the cadence for kind; unknown jobs are disabled.
func (c SchedulerConfig) Schedule(kind JobKind) JobSchedule {
	return c.Jobs[kind]
}

// DefaultSchedulerConfig leaves the scheduler off. Once enabled, the index
// is checked hourly and rebuilt daily.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Jobs: map[JobKind]JobSchedule{
			JobReindex:    {Enabled: true, Every: 24 * time.Hour},
			JobIndexCheck: {Enabled: true, Every: time.Hour},
			JobPruneRuns:  {Enabled: true, Every: 7 * 24 * time.Hour},
		},
	}
}

// JobState is the persisted state of one job between runs.
type JobState struct {
	Kind      JobKind       `json:"kind"`
	Every     time.Duration `json:"every"`
	Enabled   bool          `json:"enabled"`
	LastRun   time.Time     `json:"last_run"`
	NextRun   time.Time     `json:"next_run"`
	LastOK    time.Time     `json:"last_ok"`
	LastError string        `json:"last_error,omitempty"`
}

// Due reports whether the job should run at now. A job that never ran
// is due immediately.
func (j *JobState) Due(now time.Time) bool {
	return j.Enabled && !j.NextRun.After(now)
}

// Record folds a finished run into the state and schedules the next one.
func (j *JobState) Record(run JobRun) {
	j.LastRun = run.Started
	j.NextRun = run.Finished.Add(j.Every)
	if run.OK() {
		j.LastOK = run.Finished
		j.LastError = ""
		return
	}
	j.LastError = run.Err
}

// JobRun is one execution of a job.
type JobRun struct {
	Kind     JobKind   `json:"kind"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Pairs counts pairs reindexed, or runs pruned for JobPruneRuns.
	Pairs int    `json:"pairs"`
	Err   string `json:"error,omitempty"`
}

// OK reports whether the run succeeded.
func (r JobRun) OK() bool {
	return r.Err == ""
}

// Duration is the wall time of the run.
func (r JobRun) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
