package driving

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search ranks pairs against the query. An empty query lists the pairs
	// matching the filters.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error)

	// Suggest returns indexed terms starting with prefix.
	Suggest(ctx context.Context, prefix string, limit int) ([]domain.Suggestion, error)
}
