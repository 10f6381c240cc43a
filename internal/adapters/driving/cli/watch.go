package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/adapters/driving/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest transcripts dropped into a directory",
	Long: `Watches a directory and ingests every new or changed .json, .html or
.txt transcript. Files are ingested once they have been quiet for a
moment, at most watch.rate files per second. A file that fails is
logged and skipped. Runs until interrupted.

The directory defaults to the watch.dir setting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil || normaliser == nil || settingsService == nil {
		return errors.New("ingest service not configured")
	}

	cfg := settingsService.Watch()
	if len(args) > 0 {
		cfg.Dir = args[0]
	}

	w, err := watcher.New(cfg, normaliser, ingestService, watcher.WithResultHandler(func(r watcher.Result) {
		if r.Err != nil {
			cmd.Printf("%s: failed: %v\n", r.Path, r.Err)
			return
		}
		cmd.Printf("%s: %d accepted, %d duplicates, %d rejected\n",
			r.Path, r.Ingest.Accepted, r.Ingest.Duplicates, r.Ingest.Rejected)
	}))
	if err != nil {
		return fmt.Errorf("cannot watch: %w", err)
	}

	ctx := commandContext(cmd)
	stop := startScheduler(ctx)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Dir())
	return w.Run(ctx)
}
