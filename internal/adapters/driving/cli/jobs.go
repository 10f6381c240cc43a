package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

const jobTimeLayout = "2006-01-02 15:04"

var (
	jobsLimit int
	jobsJSON  bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show maintenance jobs",
	Long: `Lists the knowledge-base maintenance jobs with their schedule and last
outcome:

  reindex      re-classify every pair and rebuild the index
  index_check  rebuild the index only if it has drifted from the database
  prune_runs   keep the newest 100 runs of each job

Jobs run in the background during 'watch', 'serve' and 'tui' when
scheduler.enabled is true. 'qamine jobs run <job>' runs one now.`,
	Args: cobra.NoArgs,
	RunE: runJobsList,
}

var jobsRunCmd = &cobra.Command{
	Use:       "run <job>",
	Short:     "Run a maintenance job now",
	Args:      cobra.ExactArgs(1),
	ValidArgs: jobNames(),
	RunE:      runJobsRun,
}

var jobsHistoryCmd = &cobra.Command{
	Use:   "history <job>",
	Short: "Show recent runs of a maintenance job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsHistory,
}

func init() {
	jobsHistoryCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 10, "number of runs to show")
	jobsHistoryCmd.Flags().BoolVar(&jobsJSON, "json", false, "output runs as JSON")
	jobsCmd.AddCommand(jobsRunCmd, jobsHistoryCmd)
	rootCmd.AddCommand(jobsCmd)
}

func jobNames() []string {
	kinds := domain.MaintenanceJobs()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func requireJobs() error {
	if jobService == nil {
		return errors.New("job service not configured")
	}
	return nil
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if err := requireJobs(); err != nil {
		return err
	}
	jobs, err := jobService.Jobs(commandContext(cmd))
	if err != nil {
		return explain(err)
	}

	state := "off"
	if settingsService != nil && settingsService.Scheduler().Enabled {
		state = "on"
	}
	cmd.Printf("Background scheduler: %s\n\n", state)
	cmd.Printf("%-12s %-9s %-8s %-17s %-17s %s\n", "JOB", "EVERY", "ENABLED", "LAST RUN", "NEXT RUN", "STATUS")
	for _, j := range jobs {
		cmd.Printf("%-12s %-9s %-8t %-17s %-17s %s\n",
			j.Kind, j.Every, j.Enabled, formatJobTime(j.LastRun), formatJobTime(j.NextRun), jobStatus(j))
	}
	return nil
}

func jobStatus(j domain.JobState) string {
	switch {
	case j.LastRun.IsZero():
		return "never run"
	case j.LastError != "":
		return "failed: " + j.LastError
	default:
		return "ok"
	}
}

func formatJobTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(jobTimeLayout)
}

func runJobsRun(cmd *cobra.Command, args []string) error {
	if err := requireJobs(); err != nil {
		return err
	}
	kind := domain.JobKind(args[0])

	cmd.Printf("Running %s...\n", kind)
	run, err := jobService.Run(commandContext(cmd), kind)
	if err != nil {
		return explain(err)
	}
	if !run.OK() {
		return fmt.Errorf("%s failed: %s", kind, run.Err)
	}
	cmd.Printf("%s finished in %s (%d %s)\n", kind, run.Duration().Round(time.Millisecond), run.Pairs, runUnit(kind))
	return nil
}

func runUnit(kind domain.JobKind) string {
	if kind == domain.JobPruneRuns {
		return "runs pruned"
	}
	return "pairs"
}

func runJobsHistory(cmd *cobra.Command, args []string) error {
	if err := requireJobs(); err != nil {
		return err
	}
	kind := domain.JobKind(args[0])
	runs, err := jobService.History(commandContext(cmd), kind, jobsLimit)
	if err != nil {
		return explain(err)
	}

	if jobsJSON {
		if runs == nil {
			runs = []domain.JobRun{}
		}
		return printJSON(cmd, runs)
	}
	if len(runs) == 0 {
		cmd.Printf("%s has not run yet.\n", kind)
		return nil
	}
	for _, r := range runs {
		outcome := "ok"
		if !r.OK() {
			outcome = "failed: " + r.Err
		}
		cmd.Printf("%s  %8s  %5d %s  %s\n",
			formatJobTime(r.Started), r.Duration().Round(time.Millisecond), r.Pairs, runUnit(kind), outcome)
	}
	return nil
}
