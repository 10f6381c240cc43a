package cli

import (
	"context"
	"testing"

	"github.com/custodia-labs/qamine/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/services"
	"github.com/custodia-labs/qamine/internal/normalisers"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	SearchFunc  func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error)
	SuggestFunc func(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error)

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return &domain.SearchPage{Page: 1, PageSize: opts.PageSize}, nil
}

func (m *mockSearchService) Suggest(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, prefix, limit)
	}
	return nil, nil
}

// mockIngestService records the conversations it receives.
type mockIngestService struct {
	conversations []domain.Conversation
	failures      map[string]error
	err           error
}

func (m *mockIngestService) Ingest(_ context.Context, convID string, msgs []domain.RawMessage) (*domain.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.conversations = append(m.conversations, domain.Conversation{ID: convID, Messages: msgs})
	return &domain.IngestResult{ConversationID: convID, Accepted: 1}, nil
}

func (m *mockIngestService) IngestBatch(_ context.Context, convs []domain.Conversation) (*domain.BatchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.conversations = append(m.conversations, convs...)
	out := &domain.BatchResult{}
	for _, c := range convs {
		if err := m.failures[c.ID]; err != nil {
			out.Failures = append(out.Failures, domain.ConversationFailure{
				ConversationID: c.ID, Err: err, Message: err.Error(),
			})
			continue
		}
		out.Results = append(out.Results, domain.IngestResult{ConversationID: c.ID, Accepted: len(c.Messages)})
	}
	return out, nil
}

type mockIndexService struct {
	reindexed int
	err       error
}

func (m *mockIndexService) Load(_ context.Context) error { return m.err }

func (m *mockIndexService) Reindex(_ context.Context) error {
	m.reindexed++
	return m.err
}

type mockStatsService struct {
	stats      *domain.KnowledgeStats
	popular    []domain.PopularKeyword
	err        error
	popularErr error
	lastLimit  int
}

func (m *mockStatsService) PopularKeywords(_ context.Context, limit int) ([]domain.PopularKeyword, error) {
	m.lastLimit = limit
	return m.popular, m.popularErr
}

func (m *mockStatsService) Stats(_ context.Context) (*domain.KnowledgeStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return &domain.KnowledgeStats{Categories: domain.CategoryCounts(nil)}, nil
	}
	return m.stats, nil
}

type mockJobService struct {
	jobs []domain.JobState
	runs []domain.JobRun
	run  domain.JobRun
	err  error

	ran       []domain.JobKind
	lastLimit int
}

func (m *mockJobService) Jobs(_ context.Context) ([]domain.JobState, error) {
	return m.jobs, m.err
}

func (m *mockJobService) History(_ context.Context, _ domain.JobKind, limit int) ([]domain.JobRun, error) {
	m.lastLimit = limit
	return m.runs, m.err
}

func (m *mockJobService) Run(_ context.Context, kind domain.JobKind) (domain.JobRun, error) {
	if m.err != nil {
		return domain.JobRun{}, m.err
	}
	m.ran = append(m.ran, kind)
	run := m.run
	run.Kind = kind
	return run, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	ingest   *mockIngestService
	index    *mockIndexService
	stats    *mockStatsService
	jobs     *mockJobService
	settings *services.SettingsService
}

// setupTestServices installs mock services and resets command flags.
// Everything is restored when the test finishes.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	origIngest, origSearch, origIndex := ingestService, searchService, indexService
	origStats, origSettings, origScheduler := statsService, settingsService, scheduler
	origNormaliser, origCloser, origJobs := normaliser, closer, jobService
	origBootstrap, origBootstrapped := bootstrap, bootstrapped

	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry)

	ts := &testServices{
		search:   &mockSearchService{},
		ingest:   &mockIngestService{},
		index:    &mockIndexService{},
		stats:    &mockStatsService{},
		jobs:     &mockJobService{},
		settings: services.NewSettingsService(memory.NewConfigStore()),
	}
	SetServices(&Services{
		Ingest:      ts.ingest,
		Search:      ts.search,
		Index:       ts.index,
		Stats:       ts.stats,
		Settings:    ts.settings,
		Jobs:        ts.jobs,
		Normalisers: registry,
	})
	bootstrap, bootstrapped = nil, false
	resetFlags()

	t.Cleanup(func() {
		ingestService, searchService, indexService = origIngest, origSearch, origIndex
		statsService, settingsService, scheduler = origStats, origSettings, origScheduler
		normaliser, closer, jobService = origNormaliser, origCloser, origJobs
		bootstrap, bootstrapped = origBootstrap, origBootstrapped
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	return ts
}

// resetFlags restores flag variables, which persist between Execute calls.
func resetFlags() {
	searchCategory, searchAdvisor, searchFrom, searchTo = "", "", "", ""
	searchPage, searchPageSize = 1, 10
	searchSort = "relevance"
	searchSuggest, searchJSON = false, false
	ingestConversation, ingestFormat, ingestJSON = "", "", false
	statsJSON, statsKeywords = false, domain.DefaultPopularKeywords
	jobsLimit, jobsJSON = 10, false
	serveAddr, mcpAddr, versionShort = "", "", false
	verbose, configDir, dataDir = false, "", ""
	logFormat = "text"
}
