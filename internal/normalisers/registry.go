package normalisers

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/normalisers/html"
	"github.com/custodia-labs/qamine/internal/normalisers/json"
	"github.com/custodia-labs/qamine/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches transcripts to the highest-priority normaliser that
// supports their MIME type, falling back to the URI extension.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterDefaults registers the built-in JSON, HTML and plain text normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(json.New())
	r.Register(html.New())
	r.Register(plaintext.New())
}

// Register adds a normaliser, keeping the list ordered by priority.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Select returns the normaliser for a transcript.
func (r *Registry) Select(raw *domain.RawTranscript) (driven.Normaliser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mt := baseMIME(raw.MIMEType); mt != "" {
		for _, n := range r.normalisers {
			if contains(n.SupportedMIMETypes(), mt) {
				return n, nil
			}
		}
	}
	if ext := raw.Extension(); ext != "" {
		for _, n := range r.normalisers {
			if contains(n.SupportedExtensions(), ext) {
				return n, nil
			}
		}
	}
	return nil, fmt.Errorf("%s (%s): %w", raw.URI, raw.MIMEType, domain.ErrUnsupportedType)
}

// Normalise parses a transcript with the selected normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawTranscript) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	n, err := r.Select(raw)
	if err != nil {
		return nil, err
	}
	return n.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.normalisers, driven.Normaliser.SupportedMIMETypes)
}

// SupportedExtensions returns all file extensions that can be normalised.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.normalisers, driven.Normaliser.SupportedExtensions)
}

func collect(ns []driven.Normaliser, get func(driven.Normaliser) []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range ns {
		for _, v := range get(n) {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

func baseMIME(s string) string {
	if s == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return mt
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
