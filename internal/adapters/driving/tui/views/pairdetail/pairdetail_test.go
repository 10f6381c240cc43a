package pairdetail

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qamine/internal/core/domain"
)

func testHit() domain.SearchHit {
	var h domain.SearchHit
	h.Pair.ID = "pair-1"
	h.Pair.Question = "安装的时候报错怎么办"
	h.Pair.Answer = "先卸载旧版本，然后以管理员身份重新运行安装程序"
	h.Pair.Asker = "小李"
	h.Pair.Advisor = "技术支持老张"
	h.Pair.Mode = domain.ModeProblemSolution
	h.Pair.QuestionTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	h.Pair.AnswerTime = time.Date(2024, 3, 1, 10, 3, 0, 0, time.UTC)
	h.Pair.Confidence = 0.88
	h.Pair.CategoryID = domain.CategoryTechSupport
	h.Pair.CategoryConfidence = 0.7
	h.Pair.Keywords = []string{"安装", "报错"}
	h.Pair.SourceFile = "group.json"
	h.Pair.Context = []string{"小李: 大家好", "老王: 我也遇到过"}
	h.Score = 2.5
	return h
}

func TestNewView(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Nil(t, view.Hit())
	assert.Nil(t, view.Init())
}

func TestView_SetHit(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 8)
	view.SetHit(testHit())
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, view.ScrollOffset())

	view.SetHit(testHit())

	require.NotNil(t, view.Hit())
	assert.Equal(t, "pair-1", view.Hit().Pair.ID)
	assert.Equal(t, 0, view.ScrollOffset())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
}

func TestView_View_NoHit(t *testing.T) {
	view := NewView(nil)

	assert.Contains(t, view.View(), "No pair selected")
}

func TestView_View_ShowsPair(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 60)
	view.SetHit(testHit())

	out := view.View()

	assert.Contains(t, out, "安装的时候报错怎么办")
	assert.Contains(t, out, "技术支持老张")
	assert.Contains(t, out, "技术支持 70%")
	assert.Contains(t, out, "0.88")
	assert.Contains(t, out, "2024-03-01 10:03:00")
	assert.Contains(t, out, "安装, 报错")
	assert.Contains(t, out, "group.json")
	assert.Contains(t, out, "老王: 我也遇到过")
}

func TestView_View_Fallback(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(100, 60)
	hit := testHit()
	hit.Pair.Fallback = true
	view.SetHit(hit)

	assert.Contains(t, view.View(), "(fallback)")
}

func TestView_Scroll(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 8)
	view.SetHit(testHit())

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, view.ScrollOffset())

	assert.Contains(t, view.View(), "[Line 1-2 of")
}

func TestView_Scroll_StopsAtEnd(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 8)
	view.SetHit(testHit())

	for i := 0; i < 100; i++ {
		view.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	assert.Equal(t, view.vp.TotalLineCount()-view.vp.Height, view.ScrollOffset())
	assert.Contains(t, view.View(), fmt.Sprintf("of %d]", view.vp.TotalLineCount()))
}

func TestView_BackToSearch(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyRunes, Runes: []rune{'q'}}} {
		_, cmd := NewView(nil).Update(k)
		require.NotNil(t, cmd, k.String())
		assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
	}
}

func TestView_ResizeRewraps(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(120, 60)
	view.SetHit(testHit())
	wide := view.vp.TotalLineCount()

	view.SetDimensions(24, 60)

	assert.Greater(t, view.vp.TotalLineCount(), wide)
}

func TestIndent(t *testing.T) {
	got := indent("a  \nb")

	assert.Equal(t, []string{"  a", "  b"}, got)
}

func TestWrapText(t *testing.T) {
	long := strings.Repeat("字", 30)

	wrapped := wrapText(long, 20)

	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len([]rune(strings.TrimSpace(line))), 20)
	}
}
