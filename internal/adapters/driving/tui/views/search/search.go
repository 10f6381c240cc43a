// Package search is the query and results screen of the TUI.
package search

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
)

// PageSize is the number of hits requested per page.
const PageSize = 10

// ErrNoSearchService is reported when a search runs without a service.
var ErrNoSearchService = errors.New("search service is required")

// mode says where key presses go.
type mode int

const (
	typing mode = iota
	browsing
)

// View is the search screen: a query box, a filter line, one page of
// hits and a status bar.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap

	box    *input.SearchInput
	hits   *list.ResultList
	status *status.Bar

	svc driving.SearchService
	ctx context.Context

	mode mode
	// query is the last submitted query. Paging and filter changes rerun it.
	query    string
	category domain.CategoryID
	sort     domain.SortOrder
	searched bool
	err      error

	width, height int
	ready         bool
}

// NewView creates the search screen. Nil styles or keys mean the defaults.
func NewView(s *styles.Styles, keys *keymap.KeyMap, svc driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if keys == nil {
		keys = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keys:   keys,
		box:    input.NewSearchInput(s),
		hits:   list.NewResultList(s),
		status: status.NewBar(s, keys),
		svc:    svc,
		ctx:    context.Background(),
		sort:   domain.SortRelevance,
		width:  80,
		height: 24,
	}
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd {
	return v.box.Init()
}

// Update routes keys by mode and applies search results.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		if key.Matches(msg, v.keys.Back) {
			return v, changeView(messages.ViewMenu)
		}
		if v.mode == typing {
			return v, v.typingKey(msg)
		}
		return v, v.browsingKey(msg)
	case messages.SearchCompleted:
		v.applyResults(msg)
		return v, nil
	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var boxCmd, listCmd tea.Cmd
	v.box, boxCmd = v.box.Update(msg)
	v.hits, listCmd = v.hits.Update(msg)
	return v, tea.Batch(boxCmd, listCmd)
}

// typingKey edits the query; enter submits it. An empty query lists the
// whole knowledge base.
func (v *View) typingKey(msg tea.KeyMsg) tea.Cmd {
	if !key.Matches(msg, v.keys.Submit) {
		v.box, _ = v.box.Update(msg)
		return nil
	}
	v.query = v.box.Submit()
	v.browse()
	return v.search(1)
}

func (v *View) browsingKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Open):
		if hit := v.hits.SelectedResult(); hit != nil {
			selected := *hit
			return func() tea.Msg { return messages.PairSelected{Hit: selected} }
		}
	case key.Matches(msg, v.keys.Up):
		v.hits.MoveUp()
	case key.Matches(msg, v.keys.Down):
		v.hits.MoveDown()
	case key.Matches(msg, v.keys.NextPage):
		if v.hits.HasNextPage() {
			return v.search(v.hits.Page() + 1)
		}
	case key.Matches(msg, v.keys.PrevPage):
		if v.hits.HasPrevPage() {
			return v.search(v.hits.Page() - 1)
		}
	case key.Matches(msg, v.keys.Category):
		v.category = nextCategory(v.category)
		return v.search(1)
	case key.Matches(msg, v.keys.Sort):
		v.sort = nextSort(v.sort)
		return v.search(1)
	case key.Matches(msg, v.keys.NewSearch):
		v.box.SetValue("")
		v.status.Clear()
		return v.startTyping()
	}
	return nil
}

func (v *View) browse() {
	v.mode = browsing
	v.box.Blur()
}

func (v *View) startTyping() tea.Cmd {
	v.mode = typing
	return v.box.Focus()
}

func changeView(to messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: to} }
}

// nextCategory cycles the filter: all, then each category, then all again.
func nextCategory(cur domain.CategoryID) domain.CategoryID {
	all := domain.AllCategories()
	next := 0
	for i, id := range all {
		if id == cur {
			next = i + 1
		}
	}
	if cur != "" && next == len(all) {
		return ""
	}
	return all[next]
}

var sortOrders = []domain.SortOrder{domain.SortRelevance, domain.SortTime, domain.SortConfidence}

// nextSort cycles relevance, time and confidence. Unknown orders restart
// at relevance.
func nextSort(cur domain.SortOrder) domain.SortOrder {
	for i, o := range sortOrders {
		if o == cur {
			return sortOrders[(i+1)%len(sortOrders)]
		}
	}
	return domain.SortRelevance
}

// Options returns the search options for page under the current filters.
func (v *View) Options(page int) domain.SearchOptions {
	return domain.SearchOptions{
		Filters:  domain.SearchFilters{CategoryID: v.category},
		Page:     page,
		PageSize: PageSize,
		Sort:     v.sort,
	}
}

// search returns a command that runs the current query for page.
func (v *View) search(page int) tea.Cmd {
	v.status.Searching()
	svc, ctx, query, opts := v.svc, v.ctx, v.query, v.Options(page)
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		res, err := svc.Search(ctx, query, opts)
		return messages.SearchCompleted{Query: query, Page: res, Err: err}
	}
}

func (v *View) applyResults(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.err = nil
	v.searched = true
	v.hits.SetPage(msg.Page)
	v.status.Results(v.hits.Total())
	v.browse()
}

func (v *View) fail(err error) {
	v.err = err
	v.status.Fail(err)
}

// Reset empties the query and results and returns to typing. Filters
// survive.
func (v *View) Reset() {
	v.box.SetValue("")
	v.query = ""
	v.searched = false
	v.hits.SetResults(nil)
	v.ClearError()
	v.startTyping()
}

// ClearError drops the current error.
func (v *View) ClearError() {
	v.err = nil
	v.status.Clear()
}

// SetDimensions lays the components out for a width x height terminal.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
	v.box.SetWidth(width)
	v.status.SetWidth(width)
	v.hits.SetDimensions(width, height-chromeLines)
}

func (v *View) Width() int         { return v.width }
func (v *View) Height() int        { return v.height }
func (v *View) Ready() bool        { return v.ready }
func (v *View) Err() error         { return v.err }
func (v *View) InputFocused() bool { return v.mode == typing }

// Query returns the text in the query box.
func (v *View) Query() string { return v.box.Value() }

// SetQuery replaces the text in the query box.
func (v *View) SetQuery(q string) { v.box.SetValue(q) }

// Category returns the category filter. Empty means all.
func (v *View) Category() domain.CategoryID { return v.category }

func (v *View) Sort() domain.SortOrder { return v.sort }

// Results returns the hits on the current page.
func (v *View) Results() []domain.SearchHit { return v.hits.Results() }

func (v *View) Page() int  { return v.hits.Page() }
func (v *View) Total() int { return v.hits.Total() }

// SelectedIndex returns the cursor position within the page.
func (v *View) SelectedIndex() int { return v.hits.Selected() }

func (v *View) SelectedResult() *domain.SearchHit { return v.hits.SelectedResult() }
