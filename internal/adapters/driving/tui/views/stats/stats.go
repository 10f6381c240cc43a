// Package stats provides the knowledge base statistics view for the TUI.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
)

// ErrNoStatsService indicates that no stats service was provided.
var ErrNoStatsService = errors.New("statistics are not available")

const barWidth = 30

// View shows category distribution, top advisors and confidence bands.
type View struct {
	styles       *styles.Styles
	statsService driving.StatsService
	ctx          context.Context

	stats   *domain.KnowledgeStats
	loading bool
	err     error
	width   int
	height  int
	ready   bool
}

// NewView creates a new statistics view.
func NewView(s *styles.Styles, statsService driving.StatsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:       s,
		statsService: statsService,
		ctx:          context.Background(),
		width:        80,
		height:       24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the statistics.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc := v.statsService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.StatsLoaded{Err: ErrNoStatsService}
		}
		st, err := svc.Stats(ctx)
		return messages.StatsLoaded{Stats: st, Err: err}
	}
}

// Update handles messages for the statistics view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.stats = msg.Stats
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			v.loading = true
			return v, v.load()
		case "esc", "q":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}

	return v, nil
}

// View renders the statistics.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Knowledge Base"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading statistics..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.stats == nil:
		b.WriteString(v.styles.Muted.Render("No statistics loaded"))
	default:
		b.WriteString(v.renderStats(v.stats))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[r] refresh  [esc] back"))
	return b.String()
}

func (v *View) renderStats(st *domain.KnowledgeStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d\n", v.styles.Subtitle.Render("Pairs:"), st.TotalPairs)
	fmt.Fprintf(&b, "%s %d  %s %d\n",
		v.styles.Muted.Render("Index terms:"), st.IndexTerms,
		v.styles.Muted.Render("Fallback pairs:"), st.FallbackPairs)

	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Categories"))
	b.WriteString("\n")
	for _, c := range st.Categories {
		fmt.Fprintf(&b, "  %-8s %s %d\n",
			c.Name, v.styles.Category(c.CategoryID).Render(bar(c.Count, st.TotalPairs)), c.Count)
	}

	if len(st.TopAdvisors) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Top advisors"))
		b.WriteString("\n")
		for i, a := range st.TopAdvisors {
			fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, a.Advisor, a.Count)
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Confidence"))
	b.WriteString("\n")
	if st.TotalPairs > 0 {
		fmt.Fprintf(&b, "  avg %.2f  min %.2f  max %.2f\n", st.AvgConfidence, st.MinConfidence, st.MaxConfidence)
	}
	fmt.Fprintf(&b, "  %s  %s  %s\n",
		v.styles.Confidence(domain.HighConfidence).Render(fmt.Sprintf("high %d", st.Buckets.High)),
		v.styles.Confidence(domain.MediumConfidence).Render(fmt.Sprintf("medium %d", st.Buckets.Medium)),
		v.styles.Confidence(0).Render(fmt.Sprintf("low %d", st.Buckets.Low)))

	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Since start: %d batches ingested, %d fallbacks observed",
		st.BatchesIngested, st.FallbacksObserved)))

	return b.String()
}

// bar draws count as a share of total.
func bar(count, total int) string {
	filled := 0
	if total > 0 {
		filled = count * barWidth / total
	}
	if count > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Stats returns the loaded statistics.
func (v *View) Stats() *domain.KnowledgeStats {
	return v.stats
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
