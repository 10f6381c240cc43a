// Package styles provides colours and lipgloss styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// Theme is the colour palette. Category colours come from the
// categories themselves.
type Theme struct {
	Accent     lipgloss.Color
	Heading    lipgloss.Color
	Text       lipgloss.Color
	Faint      lipgloss.Color
	Frame      lipgloss.Color
	StatusBack lipgloss.Color

	// Confidence bands.
	High   lipgloss.Color
	Medium lipgloss.Color
	Low    lipgloss.Color

	Error lipgloss.Color

	// Match marks query terms inside highlights.
	Match lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#D9480F"),
		Heading:    lipgloss.Color("#1098AD"),
		Text:       lipgloss.Color("#E9ECEF"),
		Faint:      lipgloss.Color("#868E96"),
		Frame:      lipgloss.Color("#495057"),
		StatusBack: lipgloss.Color("#212529"),
		High:       lipgloss.Color("#2F9E44"),
		Medium:     lipgloss.Color("#F59F00"),
		Low:        lipgloss.Color("#E8590C"),
		Error:      lipgloss.Color("#E03131"),
		Match:      lipgloss.Color("#FCC419"),
	}
}

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Match      lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style
}

// NewStyles builds styles from theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	text := lipgloss.NewStyle().Foreground(theme.Text)
	faint := lipgloss.NewStyle().Foreground(theme.Faint)
	framed := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(theme.Frame)

	return &Styles{
		theme:      theme,
		Title:      lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Subtitle:   lipgloss.NewStyle().Bold(true).Foreground(theme.Heading),
		Normal:     text,
		Muted:      faint,
		Selected:   text.Bold(true).Background(theme.Accent),
		Error:      lipgloss.NewStyle().Foreground(theme.Error),
		Success:    lipgloss.NewStyle().Foreground(theme.High),
		Match:      lipgloss.NewStyle().Bold(true).Foreground(theme.Match),
		InputField: framed.Padding(0, 1),
		StatusBar:  faint.Background(theme.StatusBack).Padding(0, 1),
		Help:       faint,
		Border:     framed,
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Category colours text with the category's own colour.
func (s *Styles) Category(id domain.CategoryID) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(id.Color()))
}

// Confidence colours by band: high, medium or low.
func (s *Styles) Confidence(c float64) lipgloss.Style {
	switch {
	case c >= domain.HighConfidence:
		return lipgloss.NewStyle().Foreground(s.theme.High)
	case c >= domain.MediumConfidence:
		return lipgloss.NewStyle().Foreground(s.theme.Medium)
	default:
		return lipgloss.NewStyle().Foreground(s.theme.Low)
	}
}
