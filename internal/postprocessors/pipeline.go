// Package postprocessors cleans and enriches classified pairs before they
// are committed. Processors are named, built from configuration through a
// Registry and chained in a Pipeline.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order over one conversation's pairs.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline chains stages in the given order.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process feeds each stage the previous stage's output. Pairs may be
// rewritten but never added or dropped; a stage that does either fails
// the whole conversation.
func (p *Pipeline) Process(ctx context.Context, pairs []domain.ClassifiedPair) ([]domain.ClassifiedPair, error) {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Process(ctx, pairs)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		if len(out) != len(pairs) {
			return nil, fmt.Errorf("processor %s: got %d pairs back from %d", stage.Name(), len(out), len(pairs))
		}
		pairs = out
	}
	return pairs, nil
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
