package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/views/pairdetail"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/views/stats"
	"github.com/custodia-labs/qamine/internal/core/domain"
)

const windowTitle = "qamine - Q&A Search"

// App is the root tea.Model. It owns one instance of every view and
// forwards messages to the active one.
type App struct {
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	menu   *menu.View
	search *search.View
	stats  *stats.View
	detail *pairdetail.View

	current messages.ViewType
	err     error

	width, height int
	ready         bool
}

var _ tea.Model = (*App)(nil)

// NewApp builds the views over ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	keys := keymap.DefaultKeyMap()
	return &App{
		ctx:     context.Background(),
		styles:  s,
		keys:    keys,
		menu:    menu.NewView(s, keys),
		search:  search.NewView(s, keys, ports.Search),
		stats:   stats.NewView(s, ports.Stats),
		detail:  pairdetail.NewView(s),
		current: messages.ViewMenu,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.search.WithContext(ctx)
	a.stats.WithContext(ctx)
	return a
}

// Init loads statistics so the menu can show a summary.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tea.SetWindowTitle(windowTitle), a.stats.Init())
}

// Update handles app-level messages and forwards the rest.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.current == messages.ViewHelp {
			if keymap.Matches(msg.String(), a.keys.Back) {
				a.current = messages.ViewMenu
			}
			return a, nil
		}

	case messages.SearchCompleted:
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		a.err = a.search.Err()
		return a, cmd

	case messages.StatsLoaded:
		if msg.Err == nil {
			a.menu.SetStats(msg.Stats)
		}
		var cmd tea.Cmd
		a.stats, cmd = a.stats.Update(msg)
		a.err = a.stats.Err()
		return a, cmd

	case messages.PairSelected:
		a.detail.SetHit(msg.Hit)
		a.current = messages.ViewPairDetail
		return a, nil

	case messages.ViewChanged:
		return a, a.navigate(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.current != messages.ViewSearch {
			return a, nil
		}

	case messages.Quit:
		return a, tea.Quit
	}

	cmd := a.dispatch(msg)
	if _, ok := msg.(tea.KeyMsg); ok && a.current == messages.ViewSearch {
		a.err = a.search.Err()
	}
	return a, cmd
}

// navigate switches views. Search restarts with an empty query unless
// the user is coming back from a pair.
func (a *App) navigate(to messages.ViewType) tea.Cmd {
	from := a.current
	a.current = to

	switch to {
	case messages.ViewSearch:
		if from == messages.ViewPairDetail {
			return nil
		}
		a.search.Reset()
		return a.search.Init()
	case messages.ViewStats:
		return a.stats.Init()
	default:
		return nil
	}
}

// dispatch sends msg to the active view.
func (a *App) dispatch(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.current {
	case messages.ViewMenu:
		a.menu, cmd = a.menu.Update(msg)
	case messages.ViewSearch:
		a.search, cmd = a.search.Update(msg)
	case messages.ViewStats:
		a.stats, cmd = a.stats.Update(msg)
	case messages.ViewPairDetail:
		a.detail, cmd = a.detail.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View renders the active view.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.current {
	case messages.ViewSearch:
		return a.search.View()
	case messages.ViewStats:
		return a.stats.View()
	case messages.ViewPairDetail:
		return a.detail.View()
	case messages.ViewHelp:
		return a.help()
	default:
		return a.menu.View()
	}
}

// help lists the bindings. Search and results sections come from the
// keymap so they cannot drift from the handlers.
func (a *App) help() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")

	section := func(title string, rows [][2]string) {
		b.WriteString("\n" + a.styles.Subtitle.Render(title) + "\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "  %-10s %s\n", r[0], r[1])
		}
	}
	bindings := func(bs ...key.Binding) [][2]string {
		rows := make([][2]string, len(bs))
		for i, k := range bs {
			rows[i] = [2]string{k.Help().Key, k.Help().Desc}
		}
		return rows
	}

	section("Menu", [][2]string{
		{"↑/↓ j/k", "move"},
		{"enter", "open"},
		{"s t ?", "search, statistics, help"},
		{"q", "quit"},
	})
	section("Search", append(bindings(a.keys.InputHelp()...),
		[2]string{"↑/↓", "query history"}))
	section("Results", bindings(a.keys.Up, a.keys.Down, a.keys.Open, a.keys.PrevPage, a.keys.NextPage,
		a.keys.Category, a.keys.Sort, a.keys.NewSearch, a.keys.Back))
	section("Statistics", [][2]string{{"r", "refresh"}})
	section("Anywhere", [][2]string{{"ctrl+c", "quit"}})

	b.WriteString("\n" + a.styles.Help.Render("esc back to menu"))
	return b.String()
}

// Run starts the program on the alternate screen and blocks until exit.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// Query returns the search input text.
func (a *App) Query() string { return a.search.Query() }

// Results returns the hits on the current page.
func (a *App) Results() []domain.SearchHit { return a.search.Results() }

// SelectedIndex returns the result cursor.
func (a *App) SelectedIndex() int { return a.search.SelectedIndex() }

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType { return a.current }

// Err returns the last error reported by a view.
func (a *App) Err() error { return a.err }

// Ready reports whether a window size has been received.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.menu.SetDimensions(width, height)
	a.search.SetDimensions(width, height)
	a.stats.SetDimensions(width, height)
	a.detail.SetDimensions(width, height)
}
