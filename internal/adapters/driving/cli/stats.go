package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

var (
	statsJSON     bool
	statsKeywords int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	statsCmd.Flags().IntVar(&statsKeywords, "keywords", domain.DefaultPopularKeywords, "number of popular keywords to show (0 to skip)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsService == nil {
		return errors.New("stats service not configured")
	}

	stats, err := statsService.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", explain(err))
	}

	var popular []domain.PopularKeyword
	if statsKeywords > 0 {
		popular, err = statsService.PopularKeywords(commandContext(cmd), statsKeywords)
		if err != nil {
			return fmt.Errorf("failed to get popular keywords: %w", explain(err))
		}
	}

	if statsJSON {
		return printJSON(cmd, struct {
			*domain.KnowledgeStats
			PopularKeywords []domain.PopularKeyword `json:"popular_keywords,omitempty"`
		}{stats, popular})
	}
	printStats(cmd, stats)
	printPopular(cmd, popular)
	return nil
}

func printStats(cmd *cobra.Command, s *domain.KnowledgeStats) {
	cmd.Println("Knowledge Base")
	cmd.Println("==============")
	cmd.Printf("  Pairs:         %d\n", s.TotalPairs)
	cmd.Printf("  Index terms:   %d\n", s.IndexTerms)
	cmd.Printf("  Uncategorised: %d\n", s.FallbackPairs)
	cmd.Println()

	cmd.Println("[Categories]")
	for _, c := range s.Categories {
		cmd.Printf("  %-16s %d\n", c.Name, c.Count)
	}
	cmd.Println()

	if len(s.TopAdvisors) > 0 {
		cmd.Println("[Top Advisors]")
		for _, a := range s.TopAdvisors {
			cmd.Printf("  %-16s %d\n", a.Advisor, a.Count)
		}
		cmd.Println()
	}

	cmd.Println("[Confidence]")
	if s.TotalPairs > 0 {
		cmd.Printf("  Average: %.2f  (min %.2f, max %.2f)\n", s.AvgConfidence, s.MinConfidence, s.MaxConfidence)
	}
	cmd.Printf("  High:   %d\n", s.Buckets.High)
	cmd.Printf("  Medium: %d\n", s.Buckets.Medium)
	cmd.Printf("  Low:    %d\n", s.Buckets.Low)
	cmd.Println()

	cmd.Println("[This Session]")
	cmd.Printf("  Batches ingested:   %d\n", s.BatchesIngested)
	cmd.Printf("  Fallbacks observed: %d\n", s.FallbacksObserved)
}

func printPopular(cmd *cobra.Command, keywords []domain.PopularKeyword) {
	if len(keywords) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("[Popular Keywords]")
	for _, k := range keywords {
		cmd.Printf("  %-16s %d\n", k.Keyword, k.Count)
	}
}
