package mcp

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	page     *domain.SearchPage
	err      error
	lastOpts domain.SearchOptions
	lastQ    string
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchPage, error) {
	m.lastQ = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.SearchPage{Page: 1, PageSize: opts.PageSize}, nil
	}
	return m.page, nil
}

func (m *mockSearchService) Suggest(_ context.Context, _ string, _ int) ([]domain.Suggestion, error) {
	return nil, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result   *domain.IngestResult
	err      error
	lastID   string
	lastMsgs []domain.RawMessage
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	conversationID string,
	messages []domain.RawMessage,
) (*domain.IngestResult, error) {
	m.lastID = conversationID
	m.lastMsgs = messages
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.IngestResult{ConversationID: conversationID}, nil
	}
	return m.result, nil
}

func (m *mockIngestService) IngestBatch(_ context.Context, _ []domain.Conversation) (*domain.BatchResult, error) {
	return &domain.BatchResult{}, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	calls int
	err   error
}

func (m *mockIndexService) Load(_ context.Context) error {
	return m.err
}

func (m *mockIndexService) Reindex(_ context.Context) error {
	m.calls++
	return m.err
}

// mockStatsService is a mock implementation of driving.StatsService.
type mockStatsService struct {
	stats *domain.KnowledgeStats
	err   error
}

func (m *mockStatsService) Stats(_ context.Context) (*domain.KnowledgeStats, error) {
	return m.stats, m.err
}

func (m *mockStatsService) PopularKeywords(_ context.Context, _ int) ([]domain.PopularKeyword, error) {
	return nil, m.err
}

// mockJobService is a mock implementation of driving.JobService.
type mockJobService struct {
	jobs    []domain.JobState
	run     domain.JobRun
	err     error
	lastRun domain.JobKind
}

func (m *mockJobService) Jobs(_ context.Context) ([]domain.JobState, error) {
	return m.jobs, m.err
}

func (m *mockJobService) History(_ context.Context, _ domain.JobKind, _ int) ([]domain.JobRun, error) {
	return nil, m.err
}

func (m *mockJobService) Run(_ context.Context, kind domain.JobKind) (domain.JobRun, error) {
	m.lastRun = kind
	if m.err != nil {
		return domain.JobRun{}, m.err
	}
	run := m.run
	run.Kind = kind
	return run, nil
}
