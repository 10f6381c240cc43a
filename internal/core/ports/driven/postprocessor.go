package driven

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// PostProcessor rewrites one conversation's classified pairs just before
// they are committed. It may change fields but must return exactly as
// many pairs as it was given.
type PostProcessor interface {
	// Name is the key used in the pipeline.processors setting and in
	// error messages.
	Name() string
	Process(ctx context.Context, pairs []domain.ClassifiedPair) ([]domain.ClassifiedPair, error)
}

// PostProcessorPipeline runs a fixed sequence of post-processors.
type PostProcessorPipeline interface {
	Process(ctx context.Context, pairs []domain.ClassifiedPair) ([]domain.ClassifiedPair, error)
}
