package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/index"
	"github.com/custodia-labs/qamine/internal/logger"
	"github.com/custodia-labs/qamine/internal/pipeline"
	"github.com/custodia-labs/qamine/internal/pipeline/dedup"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs conversations through the pipeline and commits the
// resulting pairs to the store and the live index.
type IngestService struct {
	comps    *pipeline.Components
	pairs    driven.PairStore
	postings driven.PostingStore
	idx      *index.Index
	counters *Counters

	now   func() time.Time
	newID func() string
}

// NewIngestService creates an ingest service. counters may be shared with
// a StatsService.
func NewIngestService(
	comps *pipeline.Components,
	pairs driven.PairStore,
	postings driven.PostingStore,
	idx *index.Index,
	counters *Counters,
) *IngestService {
	if counters == nil {
		counters = NewCounters()
	}
	return &IngestService{
		comps:    comps,
		pairs:    pairs,
		postings: postings,
		idx:      idx,
		counters: counters,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// processed is one conversation that made it through the stateless stages.
type processed struct {
	conversationID string
	outcome        *pipeline.Outcome
}

// Ingest processes and commits one conversation. A malformed conversation
// is rejected as a whole.
func (s *IngestService) Ingest(
	ctx context.Context,
	conversationID string,
	messages []domain.RawMessage,
) (*domain.IngestResult, error) {
	conv := domain.Conversation{ID: conversationID, Messages: messages}
	out, err := s.comps.Process(ctx, conv)
	if err != nil {
		return nil, err
	}

	results, err := s.commit(ctx, []processed{{conversationID: conversationID, outcome: out}})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// IngestBatch processes conversations on a bounded worker group and commits
// every successful one in a single transaction. A failing conversation is
// reported in Failures and does not affect the others.
func (s *IngestService) IngestBatch(ctx context.Context, conversations []domain.Conversation) (*domain.BatchResult, error) {
	outcomes := make([]*pipeline.Outcome, len(conversations))
	errs := make([]error, len(conversations))

	g := new(errgroup.Group)
	g.SetLimit(s.comps.Config.Workers)
	for i := range conversations {
		g.Go(func() error {
			outcomes[i], errs[i] = s.comps.Process(ctx, conversations[i])
			return nil
		})
	}
	_ = g.Wait()

	// An abandoned batch commits nothing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &domain.BatchResult{}
	var ok []processed
	for i, conv := range conversations {
		if errs[i] != nil {
			logger.WithFields(map[string]any{"conversation": conv.ID}).Warnf("ingest failed: %v", errs[i])
			batch.Failures = append(batch.Failures, domain.ConversationFailure{
				ConversationID: conv.ID,
				Err:            errs[i],
				Message:        errs[i].Error(),
			})
			continue
		}
		ok = append(ok, processed{conversationID: conv.ID, outcome: outcomes[i]})
	}

	results, err := s.commit(ctx, ok)
	if err != nil {
		return nil, err
	}
	batch.Results = results
	return batch, nil
}

// slotKind records why a pair is in the commit set.
type slotKind int

const (
	slotInsert slotKind = iota
	slotReplace
)

type slot struct {
	pair  domain.ClassifiedPair
	owner int
	kind  slotKind
}

// commit deduplicates the processed conversations against each other and
// against the store, persists the survivors and publishes the new snapshot.
// It runs under the index writer lock, so commits never interleave.
func (s *IngestService) commit(ctx context.Context, items []processed) ([]domain.IngestResult, error) {
	results := make([]domain.IngestResult, len(items))
	for i, it := range items {
		results[i] = domain.IngestResult{
			ConversationID: it.conversationID,
			Rejected:       it.outcome.Rejected,
			Duplicates:     it.outcome.Duplicates,
		}
	}

	var slots []slot
	err := s.idx.Update(func(cur *index.Snapshot) (*index.Snapshot, error) {
		if cur == nil {
			loaded, err := loadSnapshot(ctx, s.comps.Index, s.pairs, s.postings)
			if err != nil {
				return nil, err
			}
			cur = loaded
		}

		known, err := s.knownFingerprints(ctx, items)
		if err != nil {
			return nil, err
		}

		slots = s.resolve(items, known, results)
		if len(slots) == 0 {
			return cur, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pairs := make([]domain.ClassifiedPair, len(slots))
		var entries []domain.IndexEntry
		for i := range slots {
			pairs[i] = slots[i].pair
			entries = append(entries, s.comps.Index.Entries(&pairs[i])...)
		}
		if err := s.pairs.CommitPairs(ctx, pairs, entries); err != nil {
			return nil, fmt.Errorf("commit pairs: %w: %w", domain.ErrIndexUnavailable, err)
		}
		return s.comps.Index.Append(cur, pairs), nil
	})
	if err != nil {
		return nil, err
	}

	var fallbacks int64
	for _, sl := range slots {
		r := &results[sl.owner]
		switch sl.kind {
		case slotInsert:
			r.Accepted++
		case slotReplace:
			r.Replaced++
		}
		if sl.pair.Fallback {
			r.Fallbacks++
			fallbacks++
		}
		r.Pairs = append(r.Pairs, sl.pair)
	}
	s.counters.batches.Add(1)
	s.counters.fallbacks.Add(fallbacks)

	for i := range results {
		r := &results[i]
		logger.WithFields(map[string]any{
			"conversation": r.ConversationID,
			"accepted":     r.Accepted,
			"replaced":     r.Replaced,
			"rejected":     r.Rejected,
			"duplicates":   r.Duplicates,
			"fallbacks":    r.Fallbacks,
		}).Debug("conversation committed")
	}
	return results, nil
}

func (s *IngestService) knownFingerprints(ctx context.Context, items []processed) (map[string]domain.FingerprintRef, error) {
	if !s.comps.Config.CrossBatchDedup {
		return nil, nil
	}
	var fps []string
	for _, it := range items {
		for _, p := range it.outcome.Pairs {
			fps = append(fps, p.Fingerprint)
		}
	}
	if len(fps) == 0 {
		return nil, nil
	}
	known, err := s.pairs.FindByFingerprints(ctx, fps)
	if err != nil {
		return nil, fmt.Errorf("look up fingerprints: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return known, nil
}

// resolve applies run-scoped and cross-batch deduplication. Duplicate counts
// are written to results; the surviving pairs are returned as slots.
func (s *IngestService) resolve(
	items []processed,
	known map[string]domain.FingerprintRef,
	results []domain.IngestResult,
) []slot {
	seen := dedup.NewSeen()
	position := make(map[string]int)
	now := s.now()
	var slots []slot

	for owner, it := range items {
		for _, p := range it.outcome.Pairs {
			if ref, ok := seen.Lookup(p.Fingerprint); ok {
				results[owner].Duplicates++
				if !dedup.Better(p.Confidence, p.QuestionTime, ref.Confidence, ref.QuestionTime) {
					continue
				}
				// The earlier pair of this run loses its place but not its ID.
				pos := position[p.Fingerprint]
				prev := slots[pos]
				results[owner].Duplicates--
				results[prev.owner].Duplicates++
				p.ID = prev.pair.ID
				p.CreatedAt = now
				slots[pos] = slot{pair: p, owner: owner, kind: prev.kind}
				seen.Remember(&slots[pos].pair)
				continue
			}

			var ref *domain.FingerprintRef
			if r, ok := known[p.Fingerprint]; ok {
				ref = &r
			}
			kind := slotInsert
			switch dedup.Resolve(p.ScoredPair, ref) {
			case dedup.Drop:
				results[owner].Duplicates++
				continue
			case dedup.Replace:
				p.ID = ref.PairID
				kind = slotReplace
			default:
				p.ID = s.newID()
			}
			p.CreatedAt = now

			position[p.Fingerprint] = len(slots)
			slots = append(slots, slot{pair: p, owner: owner, kind: kind})
			seen.Remember(&slots[len(slots)-1].pair)
		}
	}
	return slots
}
