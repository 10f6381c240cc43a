package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

var jobColumns = []string{"kind", "every_ns", "enabled", "last_run", "next_run", "last_ok", "last_error"}

// JobStore implements driven.JobStore.
type JobStore struct {
	store *Store
}

var _ driven.JobStore = (*JobStore)(nil)

// Job returns nil and no error for a job never saved.
func (s *JobStore) Job(ctx context.Context, kind domain.JobKind) (*domain.JobState, error) {
	query, args, err := psql.Select(jobColumns...).From("maintenance_jobs").
		Where(sq.Eq{"kind": string(kind)}).ToSql()
	if err != nil {
		return nil, err
	}
	job, err := scanJob(s.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading job %s: %w", kind, err)
	}
	return job, nil
}

// Jobs returns every saved job ordered by kind.
func (s *JobStore) Jobs(ctx context.Context) ([]domain.JobState, error) {
	query, args, err := psql.Select(jobColumns...).From("maintenance_jobs").OrderBy("kind").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.JobState //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// SaveJob upserts the state for job.Kind.
func (s *JobStore) SaveJob(ctx context.Context, job *domain.JobState) error {
	if job == nil || job.Kind == "" {
		return domain.ErrInvalidInput
	}
	query, args, err := psql.Insert("maintenance_jobs").Columns(jobColumns...).
		Values(string(job.Kind), int64(job.Every), boolToInt(job.Enabled),
			toNanos(job.LastRun), toNanos(job.NextRun), toNanos(job.LastOK), job.LastError).
		Suffix(`ON CONFLICT(kind) DO UPDATE SET
			every_ns = excluded.every_ns,
			enabled = excluded.enabled,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_ok = excluded.last_ok,
			last_error = excluded.last_error`).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving job %s: %w", job.Kind, err)
	}
	return nil
}

// RecordRun appends run to the history.
func (s *JobStore) RecordRun(ctx context.Context, run *domain.JobRun) error {
	if run == nil || run.Kind == "" {
		return domain.ErrInvalidInput
	}
	query, args, err := psql.Insert("job_runs").
		Columns("kind", "started_at", "finished_at", "pairs", "error").
		Values(string(run.Kind), toNanos(run.Started), toNanos(run.Finished), run.Pairs, run.Err).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("recording %s run: %w", run.Kind, err)
	}
	return nil
}

// Runs returns up to limit runs of kind, newest first. A limit of 0 or
// less returns them all.
func (s *JobStore) Runs(ctx context.Context, kind domain.JobKind, limit int) ([]domain.JobRun, error) {
	q := psql.Select("kind", "started_at", "finished_at", "pairs", "error").From("job_runs").
		Where(sq.Eq{"kind": string(kind)}).OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s runs: %w", kind, err)
	}
	defer rows.Close()

	var runs []domain.JobRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			run               domain.JobRun
			kindStr           string
			started, finished int64
		)
		if err := rows.Scan(&kindStr, &started, &finished, &run.Pairs, &run.Err); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Kind = domain.JobKind(kindStr)
		run.Started = fromNanos(started)
		run.Finished = fromNanos(finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// PruneRuns keeps the newest keep runs per job.
func (s *JobStore) PruneRuns(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.store.db.ExecContext(ctx, `
		DELETE FROM job_runs WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY kind ORDER BY started_at DESC, id DESC) AS rn
				FROM job_runs
			) WHERE rn <= ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return int(n), nil
}

func scanJob(row rowScanner) (*domain.JobState, error) {
	var (
		job                    domain.JobState
		kind                   string
		every                  int64
		enabled                int
		lastRun, nextRun, okAt int64
	)
	if err := row.Scan(&kind, &every, &enabled, &lastRun, &nextRun, &okAt, &job.LastError); err != nil {
		return nil, err
	}
	job.Kind = domain.JobKind(kind)
	job.Every = time.Duration(every)
	job.Enabled = enabled == 1
	job.LastRun = fromNanos(lastRun)
	job.NextRun = fromNanos(nextRun)
	job.LastOK = fromNanos(okAt)
	return &job, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
