// Package menu is the landing screen: where to go next and how big the
// knowledge base is.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qamine/internal/core/domain"
)

type entry struct {
	hotkey string
	title  string
	hint   string
	target messages.ViewType
	quit   bool
}

var entries = []entry{
	{hotkey: "s", title: "Search", hint: "find answers by keyword", target: messages.ViewSearch},
	{hotkey: "t", title: "Statistics", hint: "categories, advisors and confidence", target: messages.ViewStats},
	{hotkey: "?", title: "Help", hint: "key bindings", target: messages.ViewHelp},
	{hotkey: "q", title: "Quit", quit: true},
}

// View is the menu screen.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	cursor int
	stats  *domain.KnowledgeStats
	width  int
	ready  bool
}

// NewView creates the menu. Nil arguments mean the defaults.
func NewView(s *styles.Styles, keys *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if keys == nil {
		keys = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keys: keys, width: 80}
}

func (v *View) Init() tea.Cmd { return nil }

// SetStats sets the summary line. Nil hides it.
func (v *View) SetStats(st *domain.KnowledgeStats) {
	v.stats = st
}

// Update moves the cursor, follows a hotkey, or activates the entry
// under the cursor.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.cursor = min(v.cursor+1, len(entries)-1)
		case key.Matches(msg, v.keys.Submit):
			return v, activate(entries[v.cursor])
		default:
			for i, e := range entries {
				if e.hotkey == msg.String() {
					v.cursor = i
					return v, activate(e)
				}
			}
		}
	}
	return v, nil
}

func activate(e entry) tea.Cmd {
	if e.quit {
		return tea.Quit
	}
	target := e.target
	return func() tea.Msg { return messages.ViewChanged{View: target} }
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", v.styles.Title.Render("qamine"), v.styles.Muted.Render("group-chat Q&A"))
	if line := v.summary(); line != "" {
		b.WriteString(v.styles.Normal.Render(line) + "\n")
	}
	b.WriteString("\n")

	for i, e := range entries {
		marker, title := "  ", v.styles.Normal.Render(fmt.Sprintf("%-10s", e.title))
		if i == v.cursor {
			marker, title = "> ", v.styles.Selected.Render(fmt.Sprintf("%-10s", e.title))
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", marker, v.styles.Subtitle.Render(e.hotkey), title, v.styles.Muted.Render(e.hint))
	}

	b.WriteString("\n" + v.styles.Help.Render("↑/↓ move · enter open · hotkey jumps"))
	return b.String()
}

func (v *View) summary() string {
	st := v.stats
	if st == nil {
		return ""
	}
	if st.TotalPairs == 0 {
		return "Nothing indexed yet: run 'qamine ingest <export>' first."
	}

	var top domain.CategoryCount
	for _, c := range st.Categories {
		if c.Count > top.Count {
			top = c
		}
	}
	line := fmt.Sprintf("%d pairs, %d high-confidence", st.TotalPairs, st.Buckets.High)
	if top.Count > 0 {
		line += fmt.Sprintf(", mostly %s (%d%%)", top.CategoryID.DisplayName(), top.Count*100/st.TotalPairs)
	}
	return line
}

// SetDimensions records the terminal size and marks the view ready.
func (v *View) SetDimensions(width, _ int) {
	v.width = width
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.cursor
}
