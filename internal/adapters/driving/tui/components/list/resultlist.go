// Package list renders search hits for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qamine/internal/core/domain"
)

// linesPerHit is the rendered height of one hit.
const linesPerHit = 3

// ResultList shows one page of hits with a cursor. Rows scroll so the
// cursor stays visible.
type ResultList struct {
	hits []domain.SearchHit

	// Paging metadata of the page being shown; zero when the hits were set
	// without paging.
	total    int
	page     int
	pageSize int

	cursor int
	offset int

	styles *styles.Styles
	keys   *keymap.KeyMap
	width  int
	height int
}

// NewResultList returns an empty list. A nil s means default styles.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{
		page:   1,
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		width:  80,
		height: 10,
	}
}

// Init implements tea.Model.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update moves the cursor on up/down keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch k := key.String(); {
	case keymap.Matches(k, r.keys.Up):
		r.MoveUp()
	case keymap.Matches(k, r.keys.Down):
		r.MoveDown()
	}
	return r, nil
}

// SetPage shows one page of search results.
func (r *ResultList) SetPage(page *domain.SearchPage) {
	if page == nil {
		r.SetResults(nil)
		return
	}
	r.reset(page.Items)
	r.total, r.page, r.pageSize = page.Total, page.Page, page.PageSize
}

// SetResults shows hits without paging information.
func (r *ResultList) SetResults(hits []domain.SearchHit) {
	r.reset(hits)
	r.total, r.page, r.pageSize = 0, 1, 0
}

func (r *ResultList) reset(hits []domain.SearchHit) {
	r.hits = hits
	r.cursor, r.offset = 0, 0
}

// Results returns the hits on the current page.
func (r *ResultList) Results() []domain.SearchHit {
	return r.hits
}

// Count returns the number of hits on the current page.
func (r *ResultList) Count() int {
	return len(r.hits)
}

// IsEmpty reports whether there is nothing to show.
func (r *ResultList) IsEmpty() bool {
	return len(r.hits) == 0
}

// Total returns the matches across all pages, or the page length when no
// paging is known.
func (r *ResultList) Total() int {
	if r.total > 0 {
		return r.total
	}
	return len(r.hits)
}

// Page returns the 1-based page number.
func (r *ResultList) Page() int {
	return r.page
}

// Pages returns the page count, never less than 1.
func (r *ResultList) Pages() int {
	if r.total <= 0 || r.pageSize <= 0 {
		return 1
	}
	return (r.total + r.pageSize - 1) / r.pageSize
}

// HasNextPage reports whether a later page exists.
func (r *ResultList) HasNextPage() bool { return r.page < r.Pages() }

// HasPrevPage reports whether an earlier page exists.
func (r *ResultList) HasPrevPage() bool { return r.page > 1 }

// Selected returns the cursor index.
func (r *ResultList) Selected() int {
	return r.cursor
}

// SetSelected moves the cursor to index. Out-of-range values are ignored.
func (r *ResultList) SetSelected(index int) {
	if index < 0 || index >= len(r.hits) {
		return
	}
	r.cursor = index
	r.scroll()
}

// SelectedResult returns the hit under the cursor, or nil.
func (r *ResultList) SelectedResult() *domain.SearchHit {
	if r.cursor < 0 || r.cursor >= len(r.hits) {
		return nil
	}
	return &r.hits[r.cursor]
}

// MoveUp moves the cursor up one hit.
func (r *ResultList) MoveUp() {
	r.SetSelected(r.cursor - 1)
}

// MoveDown moves the cursor down one hit.
func (r *ResultList) MoveDown() {
	r.SetSelected(r.cursor + 1)
}

// SetDimensions sets the available width and height.
func (r *ResultList) SetDimensions(width, height int) {
	r.width, r.height = width, height
	r.scroll()
}

// Width returns the available width.
func (r *ResultList) Width() int { return r.width }

// Height returns the available height.
func (r *ResultList) Height() int { return r.height }

// visible is the number of hits that fit below the header.
func (r *ResultList) visible() int {
	return max(1, (r.height-2)/linesPerHit)
}

// scroll keeps the cursor inside the visible window.
func (r *ResultList) scroll() {
	n := r.visible()
	if r.cursor < r.offset {
		r.offset = r.cursor
	}
	if r.cursor >= r.offset+n {
		r.offset = r.cursor - n + 1
	}
}

// View renders the header and the visible hits.
func (r *ResultList) View() string {
	if len(r.hits) == 0 {
		return r.styles.Muted.Render("No results")
	}

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(r.header()))
	b.WriteString("\n")

	end := min(len(r.hits), r.offset+r.visible())
	for i := r.offset; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(r.renderHit(i))
	}
	return b.String()
}

func (r *ResultList) header() string {
	if r.total <= 0 || r.pageSize <= 0 {
		return fmt.Sprintf("Results (%d)", len(r.hits))
	}
	first := (r.page-1)*r.pageSize + 1
	last := first + len(r.hits) - 1
	return fmt.Sprintf("Results %d-%d of %d (page %d/%d)", first, last, r.total, r.page, r.Pages())
}

// rank is the position of hit i across all pages.
func (r *ResultList) rank(i int) int {
	if r.pageSize <= 0 {
		return i + 1
	}
	return (r.page-1)*r.pageSize + i + 1
}

// renderHit draws the question line, a metadata line and an answer preview.
func (r *ResultList) renderHit(i int) string {
	hit := &r.hits[i]
	p := &hit.Pair

	marker := "  "
	if i == r.cursor {
		marker = "> "
	}
	prefix := fmt.Sprintf("%s%d. ", marker, r.rank(i))
	score := fmt.Sprintf("%.2f", hit.Score)

	question := p.Question
	if strings.TrimSpace(question) == "" {
		question = "(empty question)"
	}
	question = clip(question, r.width-runewidth.StringWidth(prefix)-len(score)-4)

	var title string
	if i == r.cursor {
		title = r.styles.Selected.Render(prefix + question + "  " + score)
	} else {
		title = r.styles.Normal.Render(prefix+question+"  ") + r.styles.Muted.Render(score)
	}

	meta := []string{r.styles.Category(p.CategoryID).Render(p.CategoryID.DisplayName())}
	if p.Advisor != "" {
		meta = append(meta, r.styles.Muted.Render(p.Advisor))
	}
	meta = append(meta, r.styles.Confidence(p.Confidence).Render(fmt.Sprintf("%.0f%%", p.Confidence*100)))
	if !p.QuestionTime.IsZero() {
		meta = append(meta, r.styles.Muted.Render(p.QuestionTime.Format("2006-01-02 15:04")))
	}
	metaLine := "     " + strings.Join(meta, r.styles.Muted.Render(" · "))

	preview := p.Answer
	if len(hit.Highlights) > 0 {
		preview = hit.Highlights[0]
	}
	previewLine := r.styles.Muted.Render("     " + clip(preview, r.width-6))

	return title + "\n" + metaLine + "\n" + previewLine
}

// clip collapses whitespace and truncates s to at most w terminal cells.
// CJK runes take two cells.
func clip(s string, w int) string {
	s = strings.Join(strings.Fields(s), " ")
	w = max(w, 10)
	if runewidth.StringWidth(s) <= w {
		return s
	}
	return runewidth.Truncate(s, w, "…")
}
