package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/index"
	"github.com/custodia-labs/qamine/internal/logger"
	"github.com/custodia-labs/qamine/internal/pipeline"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService loads and rebuilds the live index.
type IndexService struct {
	comps    *pipeline.Components
	pairs    driven.PairStore
	postings driven.PostingStore
	idx      *index.Index
}

// NewIndexService creates an index service.
func NewIndexService(
	comps *pipeline.Components,
	pairs driven.PairStore,
	postings driven.PostingStore,
	idx *index.Index,
) *IndexService {
	return &IndexService{
		comps:    comps,
		pairs:    pairs,
		postings: postings,
		idx:      idx,
	}
}

// Load publishes the persisted postings as the live index.
func (s *IndexService) Load(ctx context.Context) error {
	return s.idx.Update(func(_ *index.Snapshot) (*index.Snapshot, error) {
		return loadSnapshot(ctx, s.comps.Index, s.pairs, s.postings)
	})
}

// loadSnapshot rebuilds a snapshot from the store without re-tokenising.
func loadSnapshot(
	ctx context.Context,
	b *index.Builder,
	pairs driven.PairStore,
	postings driven.PostingStore,
) (*index.Snapshot, error) {
	entries, err := postings.LoadPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load postings: %w: %w", domain.ErrIndexUnavailable, err)
	}
	metas, err := pairs.ListMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pair metadata: %w: %w", domain.ErrIndexUnavailable, err)
	}
	snap := b.FromEntries(entries, metas)
	logger.Debug("index: loaded %d pairs, %d terms", snap.Len(), snap.Terms())
	return snap, nil
}

// Reindex re-classifies every pair, rebuilds the postings, persists both
// in one transaction and swaps the live snapshot. Queries keep reading the
// previous snapshot until the swap.
func (s *IndexService) Reindex(ctx context.Context) error {
	_, err := s.Rebuild(ctx)
	return err
}

// Rebuild is Reindex returning the number of pairs processed.
func (s *IndexService) Rebuild(ctx context.Context) (int, error) {
	var count int
	err := s.idx.Update(func(_ *index.Snapshot) (*index.Snapshot, error) {
		start := time.Now()

		stored, err := s.pairs.ListPairs(ctx, domain.SearchFilters{})
		if err != nil {
			return nil, fmt.Errorf("list pairs: %w: %w", domain.ErrIndexUnavailable, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pairs := s.comps.Reclassify(stored)
		snap := s.comps.Index.Build(pairs)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.postings.ReplaceAll(ctx, pairs, snap.Entries()); err != nil {
			return nil, fmt.Errorf("persist rebuilt index: %w: %w", domain.ErrIndexUnavailable, err)
		}

		count = len(pairs)
		logger.WithFields(map[string]any{
			"pairs":    snap.Len(),
			"terms":    snap.Terms(),
			"duration": time.Since(start).String(),
		}).Info("index rebuilt")
		return snap, nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Repair rebuilds the index when the live snapshot and the store disagree
// on the number of pairs, or when no snapshot is loaded. It returns 0 when
// they agree.
func (s *IndexService) Repair(ctx context.Context) (int, error) {
	stored, err := s.pairs.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pairs: %w: %w", domain.ErrIndexUnavailable, err)
	}
	snap, err := s.idx.Snapshot()
	if err == nil && snap.Len() == stored {
		return 0, nil
	}
	live := 0
	if snap != nil {
		live = snap.Len()
	}
	logger.Info("index: %d pairs indexed, %d stored; rebuilding", live, stored)
	return s.Rebuild(ctx)
}
