// Package status is the one-line bar under the search screen: what the
// last search did on the left, the keys that apply now on the right.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
)

// State is the phase of the search screen.
type State int

const (
	StateInput State = iota
	StateSearching
	StateResults
	StateError
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateResults:
		return "results"
	case StateError:
		return "error"
	default:
		return "input"
	}
}

// Bar is the status line.
type Bar struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	width  int

	state   State
	message string
	total   int
	started time.Time
	took    time.Duration
}

// NewBar creates a bar in the input state. Nil arguments mean defaults.
func NewBar(s *styles.Styles, keys *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if keys == nil {
		keys = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keys: keys, width: 80}
}

// Searching starts timing a query.
func (b *Bar) Searching() {
	b.state, b.message = StateSearching, ""
	b.started = time.Now()
}

// Results shows the match count and how long the search took.
func (b *Bar) Results(total int) {
	b.state, b.message, b.total = StateResults, "", total
	b.took = 0
	if !b.started.IsZero() {
		b.took = time.Since(b.started)
	}
}

// Fail shows err until the next search or Clear.
func (b *Bar) Fail(err error) {
	b.state, b.message = StateError, err.Error()
}

// Clear goes back to the input state.
func (b *Bar) Clear() {
	*b = Bar{styles: b.styles, keys: b.keys, width: b.width}
}

// View renders the bar across the full width.
func (b *Bar) View() string {
	left, right := b.summary(), b.hints()
	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) summary() string {
	switch b.state {
	case StateSearching:
		return b.styles.Muted.Render("Searching...")
	case StateError:
		return b.styles.Error.Render("Error: " + b.message)
	case StateResults:
		if b.total == 0 {
			return b.styles.Muted.Render("No matches")
		}
		text := fmt.Sprintf("%d matches", b.total)
		if b.took > 0 {
			text += fmt.Sprintf(" in %s", b.took.Round(time.Millisecond))
		}
		return b.styles.Normal.Render(text)
	}
	return b.styles.Muted.Render("Ready")
}

// hints lists browsing keys once there is something to browse.
func (b *Bar) hints() string {
	bindings := b.keys.InputHelp()
	if b.state == StateResults && b.total > 0 {
		bindings = b.keys.ResultsHelp()
	}
	parts := make([]string, len(bindings))
	for i, k := range bindings {
		parts[i] = hint(k)
	}
	return b.styles.Help.Render(strings.Join(parts, "  "))
}

func hint(k key.Binding) string {
	return k.Help().Key + " " + k.Help().Desc
}

func (b *Bar) State() State       { return b.state }
func (b *Bar) Message() string    { return b.message }
func (b *Bar) Total() int         { return b.total }
func (b *Bar) SetWidth(width int) { b.width = width }
