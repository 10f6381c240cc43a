// Package sanitizer provides a processor that cleans pair text before it is
// stored.
package sanitizer

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// Name is the registry name of the processor.
const Name = "sanitizer"

// DefaultMaxLength is the default maximum runes of question and answer text.
const DefaultMaxLength = 2000

// DefaultMaxNameLength is the default maximum runes of sender names.
const DefaultMaxNameLength = 100

// Processor strips control characters, collapses whitespace and truncates
// overlong text. It implements the PostProcessor interface.
type Processor struct {
	maxLength     int
	maxNameLength int
}

// Option configures the sanitizer.
type Option func(*Processor)

// WithMaxLength sets the maximum runes of question and answer text.
func WithMaxLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLength = n
		}
	}
}

// WithMaxNameLength sets the maximum runes of sender names.
func WithMaxNameLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxNameLength = n
		}
	}
}

// New creates a sanitizer with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxLength:     DefaultMaxLength,
		maxNameLength: DefaultMaxNameLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process cleans every pair in place and returns the slice.
func (p *Processor) Process(_ context.Context, pairs []domain.ClassifiedPair) ([]domain.ClassifiedPair, error) {
	for i := range pairs {
		pair := &pairs[i]
		pair.Question = truncate(Clean(pair.Question), p.maxLength)
		pair.Answer = truncate(Clean(pair.Answer), p.maxLength)
		pair.Asker = truncate(Clean(pair.Asker), p.maxNameLength)
		pair.Advisor = truncate(Clean(pair.Advisor), p.maxNameLength)
		for j, line := range pair.Context {
			pair.Context[j] = truncate(Clean(line), p.maxLength)
		}
	}
	return pairs, nil
}

// Clean removes control and zero-width characters and collapses whitespace.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
