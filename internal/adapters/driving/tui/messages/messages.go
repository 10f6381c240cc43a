// Package messages holds the tea.Msg types exchanged between TUI views.
package messages

import "github.com/custodia-labs/qamine/internal/core/domain"

// SearchCompleted carries one page of results, or the error that
// prevented it, for Query.
type SearchCompleted struct {
	Query string
	Page  *domain.SearchPage
	Err   error
}

// PairSelected opens Hit in the detail view.
type PairSelected struct {
	Hit domain.SearchHit
}

// StatsLoaded carries knowledge base statistics.
type StatsLoaded struct {
	Stats *domain.KnowledgeStats
	Err   error
}

// ViewChanged asks the app to switch to View.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred reports an error outside a search or stats result.
type ErrorOccurred struct {
	Err error
}

// Quit exits the program.
type Quit struct{}

// ViewType identifies a screen.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewSearch
	ViewStats
	ViewHelp
	ViewPairDetail
)

var viewNames = [...]string{
	ViewMenu:       "menu",
	ViewSearch:     "search",
	ViewStats:      "stats",
	ViewHelp:       "help",
	ViewPairDetail: "pair_detail",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}
