package search

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// chromeLines is the height taken by everything except the hit list.
const chromeLines = 11

const emptyHint = "Type a question and press enter. Enter on an empty query lists everything."

// View renders the screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	parts := []string{
		v.styles.Title.Render("qamine"),
		"",
		v.box.View(),
		v.styles.Muted.Render(v.filterLine()),
		"",
	}
	if v.err != nil {
		parts = append(parts, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.searched || !v.hits.IsEmpty() {
		parts = append(parts, v.hits.View())
	} else {
		parts = append(parts, v.styles.Muted.Render(emptyHint))
	}
	parts = append(parts, "", v.status.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v *View) filterLine() string {
	category := "all"
	if v.category != "" {
		category = v.category.DisplayName()
	}
	return fmt.Sprintf("Category: %s [%s]  Sort: %s [%s]",
		category, v.keys.Category.Help().Key, v.sort, v.keys.Sort.Help().Key)
}
