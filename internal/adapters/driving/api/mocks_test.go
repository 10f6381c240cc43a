package api

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

type mockSearchService struct {
	page        *domain.SearchPage
	suggestions []domain.Suggestion
	err         error
	lastQuery   string
	lastOpts    domain.SearchOptions
	lastLimit   int
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.SearchPage{Items: []domain.SearchHit{}, Page: 1, PageSize: domain.DefaultPageSize}, nil
	}
	return m.page, nil
}

func (m *mockSearchService) Suggest(_ context.Context, _ string, limit int) ([]domain.Suggestion, error) {
	m.lastLimit = limit
	return m.suggestions, m.err
}

type mockIngestService struct {
	err      error
	lastID   string
	lastMsgs []domain.RawMessage
}

func (m *mockIngestService) Ingest(_ context.Context, id string, msgs []domain.RawMessage) (*domain.IngestResult, error) {
	m.lastID = id
	m.lastMsgs = msgs
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{ConversationID: id, Accepted: 1}, nil
}

func (m *mockIngestService) IngestBatch(_ context.Context, _ []domain.Conversation) (*domain.BatchResult, error) {
	return &domain.BatchResult{}, m.err
}

type mockIndexService struct {
	calls int
	err   error
}

func (m *mockIndexService) Load(_ context.Context) error { return m.err }

func (m *mockIndexService) Reindex(_ context.Context) error {
	m.calls++
	return m.err
}

type mockStatsService struct {
	stats     *domain.KnowledgeStats
	popular   []domain.PopularKeyword
	err       error
	lastLimit int
}

func (m *mockStatsService) Stats(_ context.Context) (*domain.KnowledgeStats, error) {
	return m.stats, m.err
}

func (m *mockStatsService) PopularKeywords(_ context.Context, limit int) ([]domain.PopularKeyword, error) {
	m.lastLimit = limit
	return m.popular, m.err
}
