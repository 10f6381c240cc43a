package driven

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// PairStore persists classified pairs.
// Backed by SQLite; pairs and their postings share one database so a commit
// is a single transaction.
type PairStore interface {
	// CommitPairs stores pairs and their postings atomically. A pair whose ID
	// already exists is overwritten and its previous postings are removed.
	CommitPairs(ctx context.Context, pairs []domain.ClassifiedPair, entries []domain.IndexEntry) error

	// GetPair retrieves a pair by ID. Returns domain.ErrNotFound if absent.
	GetPair(ctx context.Context, id string) (*domain.ClassifiedPair, error)

	// GetPairs retrieves pairs by ID in the given order. Missing IDs are skipped.
	GetPairs(ctx context.Context, ids []string) ([]domain.ClassifiedPair, error)

	// ListPairs returns the pairs matching filters ordered by ID.
	// Zero filters return every pair.
	ListPairs(ctx context.Context, filters domain.SearchFilters) ([]domain.ClassifiedPair, error)

	// ListMeta returns the index metadata of every pair.
	ListMeta(ctx context.Context) ([]domain.PairMeta, error)

	// FindByFingerprints returns the persisted pairs with the given
	// fingerprints, keyed by fingerprint.
	FindByFingerprints(ctx context.Context, fingerprints []string) (map[string]domain.FingerprintRef, error)

	// Count returns the number of persisted pairs.
	Count(ctx context.Context) (int, error)

	// Stats aggregates persisted pairs. Index and process counters are left
	// for the caller to fill.
	Stats(ctx context.Context) (*domain.KnowledgeStats, error)
}

// PostingStore persists the inverted index.
type PostingStore interface {
	// LoadPostings returns every persisted posting.
	LoadPostings(ctx context.Context) ([]domain.IndexEntry, error)

	// ReplaceAll rewrites every pair and posting in one transaction.
	// On error the previous content is kept.
	ReplaceAll(ctx context.Context, pairs []domain.ClassifiedPair, entries []domain.IndexEntry) error
}
