// Package keymap holds the search view key bindings.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap binds keys to search and results actions.
type KeyMap struct {
	Submit    key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	NewSearch key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding

	// Category cycles the category filter through all, then each category.
	Category key.Binding
	// Sort cycles relevance, time and confidence ordering.
	Sort key.Binding
}

// DefaultKeyMap returns the vim-flavoured defaults.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		NewSearch: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		Category:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		Sort:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
	}
}

// InputHelp lists the hints shown while typing a query.
func (k *KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// ResultsHelp lists the hints shown while browsing results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.Open, k.NextPage, k.Category, k.Sort, k.NewSearch, k.Back}
}

// Matches reports whether keyStr triggers binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
