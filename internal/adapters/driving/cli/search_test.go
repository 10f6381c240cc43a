package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

func samplePage() *domain.SearchPage {
	var h domain.SearchHit
	h.Pair.ID = "p1"
	h.Pair.Question = "会员多少钱一个月"
	h.Pair.Answer = "月卡三十元，年卡两百八十元"
	h.Pair.Advisor = "客服小王"
	h.Pair.CategoryID = domain.CategoryPricing
	h.Pair.Confidence = 0.91
	h.Pair.QuestionTime = time.Date(2024, 5, 2, 9, 30, 0, 0, time.Local)
	h.Score = 3.25
	h.Highlights = []string{"月卡三十元"}
	return &domain.SearchPage{Items: []domain.SearchHit{h}, Total: 1, Page: 1, PageSize: 10}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Flags(t *testing.T) {
	for _, name := range []string{"category", "advisor", "from", "to", "page", "page-size", "sort", "suggest", "json"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "p", searchCmd.Flags().Lookup("page").Shorthand)
	assert.Equal(t, "relevance", searchCmd.Flags().Lookup("sort").DefValue)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "search")

	assert.Error(t, err)
}

func TestSearchCmd_NoService(t *testing.T) {
	setupTestServices(t)
	searchService = nil

	_, err := executeCommand(t, "search", "价格")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	ts := setupTestServices(t)
	ts.search.SearchFunc = func(_ context.Context, _ string, _ domain.SearchOptions) (*domain.SearchPage, error) {
		return samplePage(), nil
	}

	out, err := executeCommand(t, "search", "价格")

	require.NoError(t, err)
	assert.Equal(t, "价格", ts.search.lastQuery)
	assert.Contains(t, out, "Results 1-1 of 1:")
	assert.Contains(t, out, "[1] 会员多少钱一个月 (3.25)")
	assert.Contains(t, out, "价格费用 · 客服小王 · 2024-05-02 09:30 · confidence 0.91")
	assert.Contains(t, out, "…月卡三十元…")
}

func TestSearchCmd_PassesOptions(t *testing.T) {
	ts := setupTestServices(t)

	_, err := executeCommand(t, "search", "退款",
		"--category", "after_sales", "--advisor", "售后老李",
		"--from", "2024-01-01", "--to", "2024-01-31",
		"--page", "2", "--page-size", "5", "--sort", "time")

	require.NoError(t, err)
	opts := ts.search.lastOpts
	assert.Equal(t, domain.CategoryID("after_sales"), opts.Filters.CategoryID)
	assert.Equal(t, "售后老李", opts.Filters.Advisor)
	require.NotNil(t, opts.Filters.DateRange)
	assert.Equal(t, 2024, opts.Filters.DateRange.From.Year())
	assert.Equal(t, 2, opts.Page)
	assert.Equal(t, 5, opts.PageSize)
	assert.Equal(t, domain.SortTime, opts.Sort)
}

func TestSearchCmd_InvalidSort(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "search", "x", "--sort", "random")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_InvalidDate(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "search", "x", "--from", "yesterday")

	assert.Error(t, err)
}

func TestSearchCmd_NoResults(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "search", "不存在")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_PagePastEnd(t *testing.T) {
	ts := setupTestServices(t)
	ts.search.SearchFunc = func(_ context.Context, _ string, opts domain.SearchOptions) (*domain.SearchPage, error) {
		return &domain.SearchPage{Total: 3, Page: opts.Page, PageSize: opts.PageSize}, nil
	}

	out, err := executeCommand(t, "search", "价格", "--page", "9")

	require.NoError(t, err)
	assert.Contains(t, out, "No results on page 9 (3 matches).")
}

func TestSearchCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.search.SearchFunc = func(_ context.Context, _ string, _ domain.SearchOptions) (*domain.SearchPage, error) {
		return samplePage(), nil
	}

	out, err := executeCommand(t, "search", "价格", "--json")

	require.NoError(t, err)
	var page domain.SearchPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p1", page.Items[0].Pair.ID)
}

func TestSearchCmd_ServiceError(t *testing.T) {
	ts := setupTestServices(t)
	ts.search.SearchFunc = func(_ context.Context, _ string, _ domain.SearchOptions) (*domain.SearchPage, error) {
		return nil, domain.ErrIndexUnavailable
	}

	_, err := executeCommand(t, "search", "价格")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
	assert.Contains(t, err.Error(), "qamine reindex")
}

func TestSearchCmd_Suggest(t *testing.T) {
	ts := setupTestServices(t)
	var gotLimit int
	ts.search.SuggestFunc = func(_ context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
		gotLimit = limit
		return []domain.Suggestion{{Term: prefix + "格", Pairs: 4}}, nil
	}

	out, err := executeCommand(t, "search", "价", "--suggest", "-n", "3")

	require.NoError(t, err)
	assert.Equal(t, 3, gotLimit)
	assert.Contains(t, out, "  价格 (4)")
	assert.Empty(t, ts.search.lastQuery)
}

func TestSearchCmd_SuggestEmpty(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "search", "zz", "--suggest")

	require.NoError(t, err)
	assert.Contains(t, out, "No suggestions.")
}

func TestSearchCmd_SuggestJSONEmptyList(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "search", "zz", "--suggest", "--json")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "短句", truncate("短句", 5))
	assert.Equal(t, "一二三…", truncate("一二三四五", 3))
}
