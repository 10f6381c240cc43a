package driving

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// StatsService summarises the knowledge base.
type StatsService interface {
	Stats(ctx context.Context) (*domain.KnowledgeStats, error)

	// PopularKeywords returns question keywords shared by at least two
	// pairs, most common first. A non-positive limit means the default.
	PopularKeywords(ctx context.Context, limit int) ([]domain.PopularKeyword, error)
}
