package driven

import (
	"context"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// Normaliser turns one exported transcript format into a conversation.
type Normaliser interface {
	// SupportedMIMETypes lists the MIME types handled, such as
	// application/json.
	SupportedMIMETypes() []string

	// SupportedExtensions lists file extensions, without the dot, used
	// when a transcript arrives with no MIME type.
	SupportedExtensions() []string

	// Priority breaks ties between normalisers claiming the same type.
	// Higher wins. Format parsers sit in 50-89 and catch-alls in 1-9.
	Priority() int

	// Normalise returns the messages oldest first. The conversation is
	// not validated here.
	Normalise(ctx context.Context, raw *domain.RawTranscript) (*NormaliseResult, error)
}

// NormaliseResult is what a normaliser produced.
type NormaliseResult struct {
	Conversation domain.Conversation
}

// NormaliserRegistry picks a normaliser by MIME type, falling back to the
// file extension.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawTranscript) (*NormaliseResult, error)
	Register(n Normaliser)

	// SupportedMIMETypes and SupportedExtensions aggregate every
	// registered normaliser, for help text and the watcher's filter.
	SupportedMIMETypes() []string
	SupportedExtensions() []string
}
