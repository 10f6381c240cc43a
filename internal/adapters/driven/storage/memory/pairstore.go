package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

// Ensure PairStore implements the interfaces.
var (
	_ driven.PairStore    = (*PairStore)(nil)
	_ driven.PostingStore = (*PairStore)(nil)
)

// PairStore is an in-memory implementation of driven.PairStore and
// driven.PostingStore.
type PairStore struct {
	mu       sync.RWMutex
	pairs    map[string]domain.ClassifiedPair
	postings map[string][]domain.IndexEntry // by pair ID
	failErr  error
	readErr  error
}

// NewPairStore creates a new in-memory pair store.
func NewPairStore() *PairStore {
	return &PairStore{
		pairs:    make(map[string]domain.ClassifiedPair),
		postings: make(map[string][]domain.IndexEntry),
	}
}

// FailWrites makes every following write return err. Nil restores normal
// behaviour. Used by tests to simulate an unreachable store.
func (s *PairStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// FailReads makes the bulk reads (listing, counting, stats, postings) return err.
func (s *PairStore) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// CommitPairs stores pairs and replaces their postings.
func (s *PairStore) CommitPairs(_ context.Context, pairs []domain.ClassifiedPair, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}

	for i := range pairs {
		p := clonePair(pairs[i])
		s.pairs[p.ID] = p
		delete(s.postings, p.ID)
	}
	for _, e := range entries {
		s.postings[e.PairID] = append(s.postings[e.PairID], e)
	}
	return nil
}

// ReplaceAll swaps the whole content.
func (s *PairStore) ReplaceAll(_ context.Context, pairs []domain.ClassifiedPair, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}

	s.pairs = make(map[string]domain.ClassifiedPair, len(pairs))
	s.postings = make(map[string][]domain.IndexEntry, len(pairs))
	for i := range pairs {
		p := clonePair(pairs[i])
		s.pairs[p.ID] = p
	}
	for _, e := range entries {
		s.postings[e.PairID] = append(s.postings[e.PairID], e)
	}
	return nil
}

// GetPair retrieves a pair by ID.
func (s *PairStore) GetPair(_ context.Context, id string) (*domain.ClassifiedPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pairs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = clonePair(p)
	return &p, nil
}

// GetPairs retrieves pairs in the order of ids, skipping missing ones.
func (s *PairStore) GetPairs(_ context.Context, ids []string) ([]domain.ClassifiedPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ClassifiedPair, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.pairs[id]; ok {
			out = append(out, clonePair(p))
		}
	}
	return out, nil
}

// ListPairs returns the matching pairs ordered by ID.
func (s *PairStore) ListPairs(_ context.Context, filters domain.SearchFilters) ([]domain.ClassifiedPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]domain.ClassifiedPair, 0, len(s.pairs))
	for _, p := range s.pairs {
		if filters.Matches(p.Meta()) {
			out = append(out, clonePair(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListMeta returns the metadata of every pair ordered by ID.
func (s *PairStore) ListMeta(_ context.Context) ([]domain.PairMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]domain.PairMeta, 0, len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, p.Meta())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindByFingerprints returns the persisted pairs carrying the fingerprints.
func (s *PairStore) FindByFingerprints(_ context.Context, fingerprints []string) (map[string]domain.FingerprintRef, error) {
	want := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		want[fp] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make(map[string]domain.FingerprintRef)
	for _, p := range s.pairs {
		if _, ok := want[p.Fingerprint]; !ok {
			continue
		}
		out[p.Fingerprint] = domain.FingerprintRef{
			PairID:       p.ID,
			Fingerprint:  p.Fingerprint,
			Confidence:   p.Confidence,
			QuestionTime: p.QuestionTime,
		}
	}
	return out, nil
}

// Count returns the number of pairs.
func (s *PairStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return 0, s.readErr
	}
	return len(s.pairs), nil
}

// Stats aggregates the stored pairs.
func (s *PairStore) Stats(_ context.Context) (*domain.KnowledgeStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}

	stats := &domain.KnowledgeStats{TotalPairs: len(s.pairs)}
	categories := make(map[domain.CategoryID]int)
	advisors := make(map[string]int)
	sum := 0.0
	lowest, highest := math.Inf(1), math.Inf(-1)

	for _, p := range s.pairs {
		categories[p.CategoryID]++
		advisors[p.Advisor]++
		sum += p.Confidence
		lowest = math.Min(lowest, p.Confidence)
		highest = math.Max(highest, p.Confidence)
		stats.Buckets.Add(p.Confidence)
		if p.Fallback {
			stats.FallbackPairs++
		}
	}

	stats.Categories = domain.CategoryCounts(categories)
	stats.TopAdvisors = domain.RankAdvisors(advisors, domain.TopAdvisorLimit)
	if len(s.pairs) > 0 {
		stats.AvgConfidence = sum / float64(len(s.pairs))
		stats.MinConfidence = lowest
		stats.MaxConfidence = highest
	}
	return stats, nil
}

// LoadPostings returns every posting ordered by pair ID.
func (s *PairStore) LoadPostings(_ context.Context) ([]domain.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	ids := make([]string, 0, len(s.postings))
	for id := range s.postings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []domain.IndexEntry
	for _, id := range ids {
		out = append(out, s.postings[id]...)
	}
	return out, nil
}

func clonePair(p domain.ClassifiedPair) domain.ClassifiedPair {
	if p.Keywords != nil {
		p.Keywords = append([]string(nil), p.Keywords...)
	}
	if p.Context != nil {
		p.Context = append([]string(nil), p.Context...)
	}
	return p
}
