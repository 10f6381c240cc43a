package cli

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

func TestJobsCmd_List(t *testing.T) {
	ts := setupTestServices(t)
	last := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ts.jobs.jobs = []domain.JobState{
		{Kind: domain.JobIndexCheck, Every: time.Hour, Enabled: true, LastRun: last, NextRun: last.Add(time.Hour), LastOK: last},
		{Kind: domain.JobReindex, Every: 24 * time.Hour, Enabled: true, LastRun: last, NextRun: last.Add(24 * time.Hour), LastError: "store closed"},
		{Kind: domain.JobPruneRuns, Every: 168 * time.Hour},
	}

	out, err := executeCommand(t, "jobs")

	require.NoError(t, err)
	assert.Contains(t, out, "Background scheduler: off")
	assert.Contains(t, out, "index_check")
	assert.Contains(t, out, "failed: store closed")
	assert.Contains(t, out, "never run")
	assert.Contains(t, out, last.Local().Format(jobTimeLayout))
}

func TestJobsCmd_SchedulerOn(t *testing.T) {
	ts := setupTestServices(t)
	require.NoError(t, ts.settings.Set("scheduler.enabled", true))

	out, err := executeCommand(t, "jobs")

	require.NoError(t, err)
	assert.Contains(t, out, "Background scheduler: on")
}

func TestJobsCmd_NoService(t *testing.T) {
	setupTestServices(t)
	jobService = nil

	for _, args := range [][]string{{"jobs"}, {"jobs", "run", "reindex"}, {"jobs", "history", "reindex"}} {
		_, err := executeCommand(t, args...)
		assert.EqualError(t, err, "job service not configured", "%v", args)
	}
}

func TestJobsRunCmd(t *testing.T) {
	ts := setupTestServices(t)
	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ts.jobs.run = domain.JobRun{Started: started, Finished: started.Add(1500 * time.Millisecond), Pairs: 42}

	out, err := executeCommand(t, "jobs", "run", "reindex")

	require.NoError(t, err)
	assert.Equal(t, []domain.JobKind{domain.JobReindex}, ts.jobs.ran)
	assert.Contains(t, out, "Running reindex...")
	assert.Contains(t, out, "reindex finished in 1.5s (42 pairs)")
}

func TestJobsRunCmd_PruneUnit(t *testing.T) {
	ts := setupTestServices(t)
	ts.jobs.run = domain.JobRun{Pairs: 7}

	out, err := executeCommand(t, "jobs", "run", "prune_runs")

	require.NoError(t, err)
	assert.Contains(t, out, "(7 runs pruned)")
}

func TestJobsRunCmd_Failed(t *testing.T) {
	ts := setupTestServices(t)
	ts.jobs.run = domain.JobRun{Err: "index unavailable"}

	_, err := executeCommand(t, "jobs", "run", "index_check")

	require.Error(t, err)
	assert.Equal(t, "index_check failed: index unavailable", err.Error())
}

func TestJobsRunCmd_ServiceError(t *testing.T) {
	ts := setupTestServices(t)
	ts.jobs.err = domain.ErrJobRunning

	_, err := executeCommand(t, "jobs", "run", "reindex")

	assert.ErrorIs(t, err, domain.ErrJobRunning)
}

func TestJobsRunCmd_RequiresJob(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "jobs", "run")

	assert.Error(t, err)
}

func TestJobsHistoryCmd(t *testing.T) {
	ts := setupTestServices(t)
	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ts.jobs.runs = []domain.JobRun{
		{Kind: domain.JobReindex, Started: started.Add(time.Hour), Finished: started.Add(time.Hour + time.Second), Pairs: 12},
		{Kind: domain.JobReindex, Started: started, Finished: started, Err: "store closed"},
	}

	out, err := executeCommand(t, "jobs", "history", "reindex", "--limit", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.jobs.lastLimit)
	assert.Contains(t, out, "12 pairs  ok")
	assert.Contains(t, out, "failed: store closed")
}

func TestJobsHistoryCmd_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "jobs", "history", "prune_runs")

	require.NoError(t, err)
	assert.Contains(t, out, "prune_runs has not run yet.")
}

func TestJobsHistoryCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.jobs.runs = []domain.JobRun{{Kind: domain.JobIndexCheck, Pairs: 3}}

	out, err := executeCommand(t, "jobs", "history", "index_check", "--json")

	require.NoError(t, err)
	var got []domain.JobRun
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Pairs)
}

func TestJobsHistoryCmd_JSONEmpty(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "jobs", "history", "reindex", "--json")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestJobsHistoryCmd_Error(t *testing.T) {
	ts := setupTestServices(t)
	ts.jobs.err = errors.New("unknown job")

	_, err := executeCommand(t, "jobs", "history", "nope")

	assert.EqualError(t, err, "unknown job")
}
