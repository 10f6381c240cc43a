// Package keywords provides a processor that tags pairs with their most
// characteristic terms.
package keywords

import (
	"context"
	"sort"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/tokenizer"
)

// Name is the registry name of the processor.
const Name = "keywords"

// DefaultMaxKeywords is the default number of keywords per pair.
const DefaultMaxKeywords = 5

// Processor sets ClassifiedPair.Keywords from term frequency. Question terms
// count double. It implements the PostProcessor interface.
type Processor struct {
	tok         *tokenizer.Tokenizer
	maxKeywords int
}

// Option configures the keyword processor.
type Option func(*Processor)

// WithMaxKeywords sets the number of keywords kept per pair.
func WithMaxKeywords(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxKeywords = n
		}
	}
}

// New creates a keyword processor. A nil tokenizer uses the default dictionary.
func New(tok *tokenizer.Tokenizer, opts ...Option) *Processor {
	if tok == nil {
		tok = tokenizer.New(nil)
	}
	p := &Processor{tok: tok, maxKeywords: DefaultMaxKeywords}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process sets Keywords on every pair.
func (p *Processor) Process(ctx context.Context, pairs []domain.ClassifiedPair) ([]domain.ClassifiedPair, error) {
	for i := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pairs[i].Keywords = p.Extract(pairs[i].Question, pairs[i].Answer)
	}
	return pairs, nil
}

// Extract returns up to the configured number of terms, highest weight first.
// Single characters and bare numbers are skipped.
func (p *Processor) Extract(question, answer string) []string {
	weights := make(map[string]int)
	add := func(text string, w int) {
		for _, tok := range p.tok.Tokenize(text) {
			if tok.Kind == tokenizer.KindChar || tok.Kind == tokenizer.KindNumber {
				continue
			}
			weights[tok.Text] += w
		}
	}
	add(question, 2)
	add(answer, 1)

	terms := make([]string, 0, len(weights))
	for t := range weights {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if weights[terms[i]] != weights[terms[j]] {
			return weights[terms[i]] > weights[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > p.maxKeywords {
		terms = terms[:p.maxKeywords]
	}
	return terms
}
