package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
	}

	return store, cleanup
}

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testPair(id string, cat domain.CategoryID, advisor string, conf float64) domain.ClassifiedPair {
	p := domain.ClassifiedPair{
		ID:                 id,
		CategoryID:         cat,
		CategoryConfidence: 0.5,
		Keywords:           []string{"价格", "专业版"},
		SourceFile:         "group.json",
		CreatedAt:          baseTime.Add(time.Hour),
	}
	p.ConversationID = "conv-1"
	p.Question = "专业版多少钱" + id
	p.Answer = "专业版每年999元，年付有八折优惠" + id
	p.Asker = "用户A"
	p.Advisor = advisor
	p.QuestionTime = baseTime
	p.AnswerTime = baseTime.Add(time.Minute)
	p.Mode = domain.ModeDirect
	p.WindowSpan = 5 * time.Minute
	p.Context = []string{"用户B: 我也想知道"}
	p.Confidence = conf
	p.Fingerprint = "fp-" + id
	return p
}

func posting(token, id string, field domain.IndexField) domain.IndexEntry {
	return domain.IndexEntry{Token: token, PairID: id, Field: field, TermFrequency: 1, FieldWeight: 2}
}

// ==================== Store Creation ====================

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DBFile), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_MigrationIdempotency(t *testing.T) {
	dir := t.TempDir()

	store1, err := NewStore(dir)
	require.NoError(t, err)
	v1, err := store1.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v1)
	require.NoError(t, store1.Close())

	store2, err := NewStore(dir)
	require.NoError(t, err)
	defer store2.Close()
	v2, err := store2.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var enabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

// ==================== PairStore ====================

func TestPairStore_CommitAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	p := testPair("a", domain.CategoryPricing, "客服小李", 0.95)
	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{p},
		[]domain.IndexEntry{posting("专业版", "a", domain.FieldQuestion)}))

	got, err := pairs.GetPair(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, p.Question, got.Question)
	assert.Equal(t, p.Answer, got.Answer)
	assert.Equal(t, p.Advisor, got.Advisor)
	assert.Equal(t, p.Mode, got.Mode)
	assert.Equal(t, p.WindowSpan, got.WindowSpan)
	assert.Equal(t, p.Context, got.Context)
	assert.Equal(t, p.Keywords, got.Keywords)
	assert.Equal(t, p.CategoryID, got.CategoryID)
	assert.Equal(t, p.SourceFile, got.SourceFile)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
	assert.True(t, p.QuestionTime.Equal(got.QuestionTime))
	assert.True(t, p.AnswerTime.Equal(got.AnswerTime))
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	assert.False(t, got.Fallback)

	_, err = pairs.GetPair(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPairStore_CommitOverwritesAndReplacesPostings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	p := testPair("a", domain.CategoryPricing, "客服小李", 0.8)
	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{p},
		[]domain.IndexEntry{posting("价格", "a", domain.FieldQuestion)}))

	p.Confidence = 0.9
	p.Fallback = true
	p.Keywords = nil
	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{p},
		[]domain.IndexEntry{posting("优惠", "a", domain.FieldAnswer)}))

	got, err := pairs.GetPair(ctx, "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.True(t, got.Fallback)
	assert.Nil(t, got.Keywords)

	entries, err := pairs.LoadPostings(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "优惠", entries[0].Token)
	assert.Equal(t, domain.FieldAnswer, entries[0].Field)

	n, err := pairs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPairStore_CommitIsAtomic(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	// A posting for an unknown pair violates the foreign key.
	err := pairs.CommitPairs(ctx,
		[]domain.ClassifiedPair{testPair("a", domain.CategoryPricing, "x", 0.8)},
		[]domain.IndexEntry{posting("价格", "ghost", domain.FieldQuestion)})
	require.Error(t, err)

	n, err := pairs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPairStore_GetPairsKeepsOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{
		testPair("a", domain.CategoryPricing, "x", 0.8),
		testPair("b", domain.CategoryPricing, "x", 0.8),
		testPair("c", domain.CategoryPricing, "x", 0.8),
	}, nil))

	got, err := pairs.GetPairs(ctx, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	empty, err := pairs.GetPairs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPairStore_ListPairsFilters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	late := testPair("c", domain.CategoryTechSupport, "客服小王", 0.7)
	late.QuestionTime = baseTime.Add(48 * time.Hour)
	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{
		testPair("b", domain.CategoryPricing, "客服小李", 0.9),
		testPair("a", domain.CategoryTechSupport, "客服小李", 0.8),
		late,
	}, nil))

	tests := []struct {
		name    string
		filters domain.SearchFilters
		want    []string
	}{
		{"none", domain.SearchFilters{}, []string{"a", "b", "c"}},
		{"category", domain.SearchFilters{CategoryID: domain.CategoryTechSupport}, []string{"a", "c"}},
		{"advisor", domain.SearchFilters{Advisor: "客服小李"}, []string{"a", "b"}},
		{"from", domain.SearchFilters{DateRange: &domain.DateRange{From: baseTime.Add(time.Hour)}}, []string{"c"}},
		{"to inclusive", domain.SearchFilters{DateRange: &domain.DateRange{To: baseTime}}, []string{"a", "b"}},
		{"combined", domain.SearchFilters{CategoryID: domain.CategoryTechSupport, Advisor: "客服小王"}, []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pairs.ListPairs(ctx, tt.filters)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestPairStore_ListMeta(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{
		testPair("b", domain.CategoryPricing, "客服小李", 0.9),
		testPair("a", domain.CategoryTutorial, "客服小王", 0.8),
	}, nil))

	metas, err := pairs.ListMeta(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "a", metas[0].ID)
	assert.Equal(t, domain.CategoryTutorial, metas[0].CategoryID)
	assert.Equal(t, "客服小王", metas[0].Advisor)
	assert.True(t, baseTime.Equal(metas[0].QuestionTime))
}

func TestPairStore_FindByFingerprints(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{
		testPair("a", domain.CategoryPricing, "x", 0.8),
		testPair("b", domain.CategoryPricing, "x", 0.9),
	}, nil))

	refs, err := pairs.FindByFingerprints(ctx, []string{"fp-a", "fp-unknown"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	ref := refs["fp-a"]
	assert.Equal(t, "a", ref.PairID)
	assert.InDelta(t, 0.8, ref.Confidence, 1e-9)
	assert.True(t, baseTime.Equal(ref.QuestionTime))

	none, err := pairs.FindByFingerprints(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPairStore_ReplaceAll(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	require.NoError(t, pairs.CommitPairs(ctx,
		[]domain.ClassifiedPair{testPair("a", domain.CategoryPricing, "x", 0.8)},
		[]domain.IndexEntry{posting("价格", "a", domain.FieldQuestion)}))

	require.NoError(t, pairs.ReplaceAll(ctx,
		[]domain.ClassifiedPair{testPair("b", domain.CategoryTutorial, "x", 0.8)},
		[]domain.IndexEntry{posting("教程", "b", domain.FieldQuestion)}))

	_, err := pairs.GetPair(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	entries, err := pairs.LoadPostings(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "教程", entries[0].Token)
}

func TestPairStore_ReplaceAllFailureKeepsContent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	require.NoError(t, pairs.CommitPairs(ctx,
		[]domain.ClassifiedPair{testPair("a", domain.CategoryPricing, "x", 0.8)},
		[]domain.IndexEntry{posting("价格", "a", domain.FieldQuestion)}))

	err := pairs.ReplaceAll(ctx,
		[]domain.ClassifiedPair{testPair("b", domain.CategoryTutorial, "x", 0.8)},
		[]domain.IndexEntry{posting("教程", "ghost", domain.FieldQuestion)})
	require.Error(t, err)

	got, err := pairs.GetPair(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	entries, _ := pairs.LoadPostings(ctx)
	assert.Len(t, entries, 1)
}

func TestPairStore_BulkCommitSpansChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	n := chunkSize*2 + 7
	batch := make([]domain.ClassifiedPair, 0, n)
	entries := make([]domain.IndexEntry, 0, n)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%04d", i)
		batch = append(batch, testPair(id, domain.CategoryPricing, "x", 0.8))
		entries = append(entries, posting("价格", id, domain.FieldQuestion))
		ids = append(ids, id)
	}
	require.NoError(t, pairs.CommitPairs(ctx, batch, entries))

	count, err := pairs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)

	got, err := pairs.GetPairs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, n)

	loaded, err := pairs.LoadPostings(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, n)
}

func TestPairStore_Stats(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	pairs := store.PairStore()

	empty, err := pairs.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalPairs)
	assert.Zero(t, empty.AvgConfidence)
	assert.Len(t, empty.Categories, len(domain.AllCategories()))
	assert.Empty(t, empty.TopAdvisors)

	fb := testPair("fb", domain.CategoryProductInquiry, "客服小王", 0.7)
	fb.Fallback = true
	require.NoError(t, pairs.CommitPairs(ctx, []domain.ClassifiedPair{
		testPair("p1", domain.CategoryPricing, "客服小李", 0.95),
		testPair("p2", domain.CategoryPricing, "客服小李", 0.8),
		testPair("p3", domain.CategoryPricing, "客服小李", 0.6),
		testPair("p4", domain.CategoryTechSupport, "", 0.9),
		fb,
	}, nil))

	stats, err := pairs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalPairs)
	assert.Equal(t, 1, stats.FallbackPairs)
	assert.InDelta(t, 0.79, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 0.6, stats.MinConfidence, 1e-9)
	assert.InDelta(t, 0.95, stats.MaxConfidence, 1e-9)
	assert.Equal(t, domain.ConfidenceBuckets{High: 2, Medium: 1, Low: 2}, stats.Buckets)

	require.Len(t, stats.TopAdvisors, 2)
	assert.Equal(t, domain.AdvisorCount{Advisor: "客服小李", Count: 3}, stats.TopAdvisors[0])
	assert.Equal(t, domain.AdvisorCount{Advisor: "客服小王", Count: 1}, stats.TopAdvisors[1])

	byID := make(map[domain.CategoryID]int)
	for _, c := range stats.Categories {
		byID[c.CategoryID] = c.Count
	}
	assert.Equal(t, 3, byID[domain.CategoryPricing])
	assert.Equal(t, 1, byID[domain.CategoryTechSupport])
	assert.Equal(t, 1, byID[domain.CategoryProductInquiry])
	assert.Equal(t, 0, byID[domain.CategoryTutorial])
}

func TestStore_ContextCancellation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.PairStore().CommitPairs(ctx,
		[]domain.ClassifiedPair{testPair("a", domain.CategoryPricing, "x", 0.8)}, nil)
	assert.Error(t, err)
}
