package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the Q&A categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	var weights map[domain.CategoryID]float64
	if settingsService != nil {
		cfg, err := settingsService.Pipeline()
		if err != nil {
			return err
		}
		weights = cfg.Classification.Weights
	}

	for _, c := range domain.Categories(weights) {
		cmd.Printf("  %-16s %-8s weight %.1f\n", c.ID, c.Name, c.Weight)
		cmd.Printf("  %-16s %s\n", "", c.Description)
	}
	return nil
}
