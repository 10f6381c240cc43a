package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

func TestStats_Empty(t *testing.T) {
	h := newHarness(t, domain.DefaultPipelineConfig())

	stats, err := h.stats.Stats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalPairs)
	assert.Zero(t, stats.IndexTerms)
	assert.Zero(t, stats.BatchesIngested)
	assert.Len(t, stats.Categories, len(domain.AllCategories()))
}

func TestStats_AfterIngest(t *testing.T) {
	h := newHarness(t, domain.DefaultPipelineConfig())
	h.seed(t)
	ctx := context.Background()

	_, err := h.ingest.Ingest(ctx, "usage", usageMessages())
	require.NoError(t, err)

	stats, err := h.stats.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalPairs)
	assert.Positive(t, stats.IndexTerms)
	assert.Equal(t, int64(2), stats.BatchesIngested)
	assert.Equal(t, stats.Buckets.High+stats.Buckets.Medium+stats.Buckets.Low, stats.TotalPairs)
	assert.GreaterOrEqual(t, stats.MinConfidence, h.comps.Config.Scoring.ConfidenceFloor)
	assert.LessOrEqual(t, stats.MinConfidence, stats.AvgConfidence)
	assert.LessOrEqual(t, stats.AvgConfidence, stats.MaxConfidence)

	total := 0
	for _, c := range stats.Categories {
		total += c.Count
	}
	assert.Equal(t, 3, total)

	require.NotEmpty(t, stats.TopAdvisors)
	assert.Equal(t, "客服", stats.TopAdvisors[0].Advisor)
	assert.Equal(t, 2, stats.TopAdvisors[0].Count)
}

func TestStats_UnloadedIndexReportsZeroTerms(t *testing.T) {
	h := newUnloadedHarness(t, domain.DefaultPipelineConfig())

	stats, err := h.stats.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.IndexTerms)
}

func TestStats_StoreError(t *testing.T) {
	h := newHarness(t, domain.DefaultPipelineConfig())
	boom := errors.New("locked")
	h.store.FailReads(boom)

	_, err := h.stats.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPopularKeywords(t *testing.T) {
	h := newHarness(t, domain.DefaultPipelineConfig())
	ctx := context.Background()

	h.seed(t)
	got, err := h.stats.PopularKeywords(ctx, 0)
	require.NoError(t, err)
	for _, k := range got {
		assert.NotEqual(t, "价格", k.Keyword, "asked only once")
	}

	_, err = h.ingest.IngestBatch(ctx, ticketBatch(1))
	require.NoError(t, err)
	got, err = h.stats.PopularKeywords(ctx, 0)
	require.NoError(t, err)
	assert.Contains(t, got, domain.PopularKeyword{Keyword: "价格", Count: 2})
	assert.LessOrEqual(t, len(got), domain.DefaultPopularKeywords)
	for _, k := range got {
		assert.GreaterOrEqual(t, k.Count, domain.MinKeywordPairs, k.Keyword)
	}

	one, err := h.stats.PopularKeywords(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	capped, err := h.stats.PopularKeywords(ctx, 1000)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(capped), domain.MaxPopularKeywords)
}

func TestPopularKeywords_UnloadedIndex(t *testing.T) {
	h := newUnloadedHarness(t, domain.DefaultPipelineConfig())

	_, err := h.stats.PopularKeywords(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestCounters(t *testing.T) {
	c := NewCounters()
	c.batches.Add(2)
	c.fallbacks.Add(5)
	assert.Equal(t, int64(2), c.Batches())
	assert.Equal(t, int64(5), c.Fallbacks())
}
