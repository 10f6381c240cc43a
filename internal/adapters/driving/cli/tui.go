package cli

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui"
	"github.com/custodia-labs/qamine/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the knowledge base interactively",
	Long: `Opens a full-screen browser over the knowledge base: search with
category filters and sort orders, page through hits, open a pair to read
the whole exchange, and check the statistics.

Keys:
  enter       search, or open the selected pair
  j/k ↑/↓     move through hits
  h/l ←/→     previous and next page
  c / o       cycle category filter / sort order
  esc         back
  q, ctrl+c   quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	app, err := tui.NewApp(tui.NewPorts(searchService, statsService))
	if err != nil {
		return err
	}
	if !stdoutIsTerminal() {
		return errors.New("tui needs an interactive terminal")
	}

	// A panic in a view must not leave the terminal in raw mode.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tui panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("tui: %v", r)
		}
	}()

	ctx := commandContext(cmd)
	stop := startScheduler(ctx)
	defer stop()

	return app.WithContext(ctx).Run()
}
