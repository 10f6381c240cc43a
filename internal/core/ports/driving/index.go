package driving

import "context"

// IndexService manages the live inverted index.
type IndexService interface {
	// Load publishes the persisted postings as the live index.
	Load(ctx context.Context) error

	// Reindex re-classifies every pair with the current vocabulary, rebuilds
	// the postings, persists both and swaps the live index. It is idempotent
	// and does not block queries.
	Reindex(ctx context.Context) error
}
