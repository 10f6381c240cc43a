// Package pairdetail shows a single question/answer pair in full.
package pairdetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qamine/internal/core/domain"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	// chrome is the title, rule, footer and help around the viewport.
	chrome = 6
)

// View scrolls through one pair, its metadata and the messages around it.
type View struct {
	styles *styles.Styles
	hit    *domain.SearchHit
	vp     viewport.Model

	width, height int
	ready         bool
}

// NewView creates the detail view. Nil styles mean the defaults.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{styles: s, vp: viewport.New(80, 24-chrome)}
	v.width, v.height = 80, 24
	return v
}

// SetHit shows hit from the top.
func (v *View) SetHit(hit domain.SearchHit) {
	v.hit = &hit
	v.vp.SetContent(v.body())
	v.vp.GotoTop()
}

func (v *View) Init() tea.Cmd { return nil }

// Update scrolls, or goes back to the results on esc or q.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
		}
		var cmd tea.Cmd
		v.vp, cmd = v.vp.Update(msg)
		return v, cmd
	}
	return v, nil
}

// body lays the pair out as wrapped, styled text.
func (v *View) body() string {
	if v.hit == nil {
		return ""
	}
	p := v.hit.Pair
	width := max(v.width-4, 20)

	var lines []string
	section := func(title string, paragraphs ...string) {
		lines = append(lines, v.styles.Subtitle.Render(title+":"))
		for _, para := range paragraphs {
			lines = append(lines, indent(wrapText(para, width))...)
		}
	}
	field := func(label, value string) {
		if value != "" {
			lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("%-11s", label+":"))+" "+value)
		}
	}

	section("Question", p.Question)
	lines = append(lines, "")
	section("Answer", p.Answer)
	lines = append(lines, "")

	category := p.CategoryID.DisplayName()
	if p.Fallback {
		category += " (fallback)"
	}
	field("Category", v.styles.Category(p.CategoryID).Render(category)+fmt.Sprintf(" %.0f%%", p.CategoryConfidence*100))
	field("Confidence", v.styles.Confidence(p.Confidence).Render(fmt.Sprintf("%.2f", p.Confidence)))
	field("Score", fmt.Sprintf("%.3f", v.hit.Score))
	field("Asker", p.Asker)
	field("Advisor", p.Advisor)
	field("Mode", p.Mode.String())
	if !p.QuestionTime.IsZero() {
		field("Asked", p.QuestionTime.Format(timeLayout))
	}
	if !p.AnswerTime.IsZero() {
		field("Answered", p.AnswerTime.Format(timeLayout))
	}
	field("Keywords", strings.Join(p.Keywords, ", "))
	field("Source", p.SourceFile)

	if len(p.Context) > 0 {
		lines = append(lines, "")
		section("Context", p.Context...)
	}
	return strings.Join(lines, "\n")
}

// wrapText wraps s to width cells. Text without spaces is broken hard.
func wrapText(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func indent(s string) []string {
	out := strings.Split(s, "\n")
	for i, l := range out {
		out[i] = "  " + strings.TrimRight(l, " ")
	}
	return out
}

// View renders the pair, or a placeholder when none is selected.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Q&A Pair") + "\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)) + "\n\n")

	if v.hit == nil {
		b.WriteString(v.styles.Muted.Render("No pair selected") + "\n\n")
	} else {
		b.WriteString(v.vp.View() + "\n")
		if total := v.vp.TotalLineCount(); total > v.vp.Height {
			last := min(v.vp.YOffset+v.vp.Height, total)
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", v.vp.YOffset+1, last, total)))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [pgup/pgdn] page  [esc] back to results"))
	return b.String()
}

// SetDimensions resizes the viewport and rewraps the pair.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
	v.vp.Width = width
	v.vp.Height = max(height-chrome, 1)
	if v.hit != nil {
		v.vp.SetContent(v.body())
	}
}

// Hit returns the displayed pair, if any.
func (v *View) Hit() *domain.SearchHit {
	return v.hit
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.vp.YOffset
}
