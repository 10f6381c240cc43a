package postprocessors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

// Options are one processor's settings, the pipeline.<name>.* table of
// the config file.
type Options map[string]any

// Int returns a positive integer option, or 0. TOML yields int64 and JSON
// float64, so both are accepted when whole.
func (o Options) Int(key string) int {
	var n int
	switch v := o[key].(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v == float64(int(v)) {
			n = int(v)
		}
	}
	return max(n, 0)
}

// Builder constructs a processor from its options.
type Builder func(Options) (driven.PostProcessor, error)

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, b Builder) {
	r.builders[name] = b
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for n := range r.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build constructs the processor called name.
func (r *Registry) Build(name string, opts Options) (driven.PostProcessor, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q (available: %s)",
			domain.ErrInvalidInput, name, strings.Join(r.Names(), ", "))
	}
	return b(opts)
}

// BuildPipeline builds the configured processors in order. Listing a
// processor twice is rejected.
func (r *Registry) BuildPipeline(configs []domain.ProcessorConfig) (*Pipeline, error) {
	stages := make([]driven.PostProcessor, 0, len(configs))
	seen := make(map[string]bool, len(configs))
	for _, c := range configs {
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: processor %q listed twice", domain.ErrInvalidInput, c.Name)
		}
		seen[c.Name] = true

		p, err := r.Build(c.Name, c.Config)
		if err != nil {
			return nil, err
		}
		stages = append(stages, p)
	}
	return NewPipeline(stages...), nil
}
