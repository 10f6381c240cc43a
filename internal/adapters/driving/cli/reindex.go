package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-classify all pairs and rebuild the search index",
	Long: `Re-runs the classifier over every stored pair and rebuilds the postings
from scratch. Use it after changing category weights, the vocabulary or
the synonym dictionary. Searches keep using the old index until the new
one is ready.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	cmd.Println("Rebuilding index...")
	if err := indexService.Reindex(commandContext(cmd)); err != nil {
		return fmt.Errorf("reindex failed: %w", explain(err))
	}
	cmd.Println("Index rebuilt.")
	return nil
}
