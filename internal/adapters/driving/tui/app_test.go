package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qamine/internal/core/domain"
)

func newTestPorts() *Ports {
	return NewPorts(&MockSearchService{}, &MockStatsService{Result: &domain.KnowledgeStats{TotalPairs: 2}})
}

func testPage() *domain.SearchPage {
	var h domain.SearchHit
	h.Pair.ID = "pair-1"
	h.Pair.Question = "怎么退款"
	h.Pair.Answer = "在订单页面申请售后，三个工作日内退回"
	h.Pair.CategoryID = domain.CategoryAfterSales
	h.Score = 1.2
	return &domain.SearchPage{Items: []domain.SearchHit{h}, Total: 1, Page: 1, PageSize: 10}
}

// goToSearchView navigates the app from menu to search view.
func goToSearchView(app *App) {
	app.SetDimensions(80, 24)
	app.Update(messages.ViewChanged{View: messages.ViewSearch})
}

func typeText(app *App, s string) {
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingSearchService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_TypingInSearch(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	goToSearchView(app)

	typeText(app, "退款")

	assert.Equal(t, "退款", app.Query())
}

func TestApp_Update_SearchCompleted(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	goToSearchView(app)

	model, cmd := app.Update(messages.SearchCompleted{Query: "退款", Page: testPage()})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.Len(t, app.Results(), 1)
	assert.NoError(t, app.Err())
}

func TestApp_Update_SearchCompleted_WithError(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	goToSearchView(app)

	app.Update(messages.SearchCompleted{Err: domain.ErrIndexUnavailable})

	assert.ErrorIs(t, app.Err(), domain.ErrIndexUnavailable)
	assert.Contains(t, app.View(), "Error")
}

func TestApp_SearchFlow(t *testing.T) {
	var gotQuery string
	ports := NewPorts(&MockSearchService{
		SearchFunc: func(_ context.Context, q string, _ domain.SearchOptions) (*domain.SearchPage, error) {
			gotQuery = q
			return testPage(), nil
		},
	}, nil)
	app, _ := NewApp(ports)
	goToSearchView(app)
	typeText(app, "退款")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, "退款", gotQuery)
	require.Len(t, app.Results(), 1)
	assert.Contains(t, app.View(), "怎么退款")

	// Enter on a result opens the pair.
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewPairDetail, app.CurrentView())
	assert.Contains(t, app.View(), "三个工作日内退回")

	// Esc returns to the results without clearing them.
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Len(t, app.Results(), 1)
}

func TestApp_Update_PairSelected(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 24)

	app.Update(messages.PairSelected{Hit: testPage().Items[0]})

	assert.Equal(t, messages.ViewPairDetail, app.CurrentView())
	assert.Contains(t, app.View(), "怎么退款")
}

func TestApp_ViewChanged_ToSearchFromMenuResets(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	goToSearchView(app)
	app.Update(messages.SearchCompleted{Page: testPage()})
	app.Update(messages.ViewChanged{View: messages.ViewMenu})

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSearch})

	assert.NotNil(t, cmd)
	assert.Empty(t, app.Results())
}

func TestApp_StatsFlow(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 40)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewStats})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewStats, app.CurrentView())

	app.Update(cmd())

	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "Pairs:")
}

func TestApp_StatsLoaded_UpdatesMenuSummary(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 24)

	app.Update(messages.StatsLoaded{Stats: &domain.KnowledgeStats{
		TotalPairs: 4,
		Categories: []domain.CategoryCount{{CategoryID: domain.CategoryPricing, Count: 4}},
	}})

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.Contains(t, app.View(), "4 pairs, 0 high-confidence, mostly 价格费用 (100%)")
}

func TestApp_Update_StatsLoaded_Error(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 24)
	app.Update(messages.ViewChanged{View: messages.ViewStats})

	app.Update(messages.StatsLoaded{Err: errors.New("store closed")})

	assert.EqualError(t, app.Err(), "store closed")
	assert.Contains(t, app.View(), "store closed")
}

func TestApp_Update_ErrorOccurred_InSearchView(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	goToSearchView(app)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Contains(t, app.View(), "boom")
}

func TestApp_Update_ErrorOccurred_InMenuView(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 24)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Update_KeyMsg_CtrlC(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_Update_Quit(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
}

func TestApp_Help(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 24)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	view := app.View()
	for _, want := range []string{"Results", "c          category", "o          sort", "query history", "ctrl+c"} {
		assert.Contains(t, view, want)
	}

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_MenuNavigation(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	app.SetDimensions(80, 24)

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewStats}, cmd())
}

func TestApp_View(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		app, _ := NewApp(newTestPorts())
		assert.Equal(t, "Initialising...", app.View())
	})

	t.Run("menu", func(t *testing.T) {
		app, _ := NewApp(newTestPorts())
		app.SetDimensions(80, 24)
		assert.Contains(t, app.View(), "find answers by keyword")
	})

	t.Run("search", func(t *testing.T) {
		app, _ := NewApp(newTestPorts())
		goToSearchView(app)
		assert.Contains(t, app.View(), "Sort: relevance")
	})
}

func TestApp_SelectedIndex(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	goToSearchView(app)
	app.Update(messages.SearchCompleted{Page: testPage()})

	assert.Equal(t, 0, app.SelectedIndex())
}
