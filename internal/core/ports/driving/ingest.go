package driving

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// IngestService turns conversations into persisted, indexed pairs.
type IngestService interface {
	// Ingest processes one conversation. A malformed conversation is
	// rejected as a whole and nothing is persisted.
	Ingest(ctx context.Context, conversationID string, messages []domain.RawMessage) (*domain.IngestResult, error)

	// IngestBatch processes conversations concurrently. A failing
	// conversation is reported in BatchResult.Failures; the others still commit.
	IngestBatch(ctx context.Context, conversations []domain.Conversation) (*domain.BatchResult, error)
}
