package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/index"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// Counters are process-wide ingestion counters shared by the ingest and
// stats services.
type Counters struct {
	batches   atomic.Int64
	fallbacks atomic.Int64
}

// NewCounters creates zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Batches returns the number of committed ingestion calls.
func (c *Counters) Batches() int64 { return c.batches.Load() }

// Fallbacks returns the number of committed fallback classifications.
func (c *Counters) Fallbacks() int64 { return c.fallbacks.Load() }

// StatsService summarises the knowledge base.
type StatsService struct {
	pairs    driven.PairStore
	idx      *index.Index
	counters *Counters
}

// NewStatsService creates a stats service.
func NewStatsService(pairs driven.PairStore, idx *index.Index, counters *Counters) *StatsService {
	if counters == nil {
		counters = NewCounters()
	}
	return &StatsService{pairs: pairs, idx: idx, counters: counters}
}

// Stats aggregates persisted pairs and adds the live index size and the
// process counters. An unloaded index reports zero terms.
func (s *StatsService) Stats(ctx context.Context) (*domain.KnowledgeStats, error) {
	stats, err := s.pairs.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate pairs: %w", err)
	}
	if snap, err := s.idx.Snapshot(); err == nil {
		stats.IndexTerms = snap.Terms()
	}
	stats.BatchesIngested = s.counters.Batches()
	stats.FallbacksObserved = s.counters.Fallbacks()
	return stats, nil
}

// PopularKeywords ranks question tokens by the number of pairs asking about
// them. It reads the live snapshot, so it fails until the index is loaded.
func (s *StatsService) PopularKeywords(_ context.Context, limit int) ([]domain.PopularKeyword, error) {
	snap, err := s.idx.Snapshot()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = domain.DefaultPopularKeywords
	}
	limit = min(limit, domain.MaxPopularKeywords)
	return snap.Popular(domain.MinKeywordPairs, limit), nil
}
