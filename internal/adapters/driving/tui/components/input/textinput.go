// Package input provides the query box for the search view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
)

// historySize caps the remembered queries.
const historySize = 20

// SearchInput is a single-line query box with a recall history.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	// history holds submitted queries, newest last. cursor == len(history)
	// means the user is editing a fresh query.
	history []string
	cursor  int
	draft   string
}

// NewSearchInput creates a focused query box.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "问题或关键词, 例如: 怎么退款"
	ti.CharLimit = 256
	ti.Width = 50
	ti.Focus()

	return &SearchInput{textinput: ti, styles: s, width: 50}
}

// Init starts the cursor blinking.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text box. Up and down walk the history.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type { //nolint:exhaustive // only history keys are intercepted
		case tea.KeyUp:
			s.Previous()
			return s, nil
		case tea.KeyDown:
			s.Next()
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// Submit records the current query and returns it. Blank queries are
// returned but not remembered; repeating the last query is not stored twice.
func (s *SearchInput) Submit() string {
	q := s.textinput.Value()
	if t := strings.TrimSpace(q); t != "" {
		if n := len(s.history); n == 0 || s.history[n-1] != t {
			s.history = append(s.history, t)
			if len(s.history) > historySize {
				s.history = s.history[len(s.history)-historySize:]
			}
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
	return q
}

// Previous replaces the text with the previous query from history.
func (s *SearchInput) Previous() {
	if s.cursor == 0 {
		return
	}
	if s.cursor == len(s.history) {
		s.draft = s.textinput.Value()
	}
	s.cursor--
	s.setText(s.history[s.cursor])
}

// Next moves forward through history, ending at the unsent draft.
func (s *SearchInput) Next() {
	if s.cursor >= len(s.history) {
		return
	}
	s.cursor++
	if s.cursor == len(s.history) {
		s.setText(s.draft)
		return
	}
	s.setText(s.history[s.cursor])
}

func (s *SearchInput) setText(v string) {
	s.textinput.SetValue(v)
	s.textinput.CursorEnd()
}

// History returns the remembered queries, oldest first.
func (s *SearchInput) History() []string {
	return s.history
}

// View renders the label and the framed box side by side.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render("问: ")
	box := s.styles.InputField.Render(s.textinput.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, box)
}

// Value returns the current text.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue replaces the text.
func (s *SearchInput) SetValue(value string) {
	s.setText(value)
}

// Focus gives the box keyboard focus.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused reports whether the box has focus.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth fits the box into width cells, leaving room for the label.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(width-10, 20)
}

// Width returns the width last set.
func (s *SearchInput) Width() int {
	return s.width
}
