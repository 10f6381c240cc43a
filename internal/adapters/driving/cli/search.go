package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

const snippetRunes = 80

var (
	searchCategory string
	searchAdvisor  string
	searchFrom     string
	searchTo       string
	searchPage     int
	searchPageSize int
	searchSort     string
	searchSuggest  bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the Q&A knowledge base",
	Long: `Searches question/answer pairs by keyword. Chinese text is segmented and
expanded with synonyms, so "价格" also finds pairs that say "多少钱".

An empty query ("") lists the pairs matching the filters, best confidence
first. With --suggest the argument is treated as a prefix and indexed
terms starting with it are listed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "restrict to a category ID (see 'qamine categories')")
	searchCmd.Flags().StringVar(&searchAdvisor, "advisor", "", "restrict to pairs answered by this sender")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "earliest question date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "latest question date (YYYY-MM-DD)")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "page number")
	searchCmd.Flags().IntVarP(&searchPageSize, "page-size", "n", 10, "results per page")
	searchCmd.Flags().StringVar(&searchSort, "sort", "relevance", "sort order: relevance, time or confidence")
	searchCmd.Flags().BoolVar(&searchSuggest, "suggest", false, "list indexed terms starting with the query")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	if searchSuggest {
		return runSuggest(cmd, query)
	}

	sort, err := domain.ParseSortOrder(searchSort)
	if err != nil {
		return err
	}
	dates, err := domain.ParseDateRange(searchFrom, searchTo, nil)
	if err != nil {
		return err
	}
	opts := domain.SearchOptions{
		Filters: domain.SearchFilters{
			CategoryID: domain.CategoryID(searchCategory),
			Advisor:    searchAdvisor,
			DateRange:  dates,
		},
		Page:     searchPage,
		PageSize: searchPageSize,
		Sort:     sort,
	}

	page, err := searchService.Search(commandContext(cmd), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", explain(err))
	}

	if searchJSON {
		return printJSON(cmd, page)
	}

	return outputSearchTable(cmd, page)
}

func runSuggest(cmd *cobra.Command, prefix string) error {
	suggestions, err := searchService.Suggest(commandContext(cmd), prefix, searchPageSize)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", explain(err))
	}
	if searchJSON {
		if suggestions == nil {
			suggestions = []domain.Suggestion{}
		}
		return printJSON(cmd, suggestions)
	}
	if len(suggestions) == 0 {
		cmd.Println("No suggestions.")
		return nil
	}
	for _, s := range suggestions {
		cmd.Printf("  %s (%d)\n", s.Term, s.Pairs)
	}
	return nil
}

func outputSearchTable(cmd *cobra.Command, page *domain.SearchPage) error {
	if len(page.Items) == 0 {
		if page.Total > 0 {
			cmd.Printf("No results on page %d (%d matches).\n", page.Page, page.Total)
			return nil
		}
		cmd.Println("No results found.")
		return nil
	}

	first := (page.Page-1)*page.PageSize + 1
	cmd.Printf("Results %d-%d of %d:\n", first, first+len(page.Items)-1, page.Total)
	cmd.Println()
	for i := range page.Items {
		hit := &page.Items[i]
		p := &hit.Pair

		cmd.Printf("  [%d] %s (%.2f)\n", first+i, p.Question, hit.Score)
		cmd.Printf("      %s\n", truncate(p.Answer, snippetRunes))
		meta := []string{p.CategoryID.DisplayName()}
		if p.Advisor != "" {
			meta = append(meta, p.Advisor)
		}
		meta = append(meta, p.QuestionTime.Format("2006-01-02 15:04"), fmt.Sprintf("confidence %.2f", p.Confidence))
		cmd.Printf("      %s\n", strings.Join(meta, " · "))
		if len(hit.Highlights) > 0 {
			cmd.Printf("      …%s…\n", hit.Highlights[0])
		}
		cmd.Println()
	}

	return nil
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
