package classifier

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

//go:embed default_vocabulary.yaml
var defaultVocabulary []byte

// Rules are the signals of one category.
type Rules struct {
	Keywords []string `yaml:"keywords"`
	Patterns []string `yaml:"patterns"`
}

// Vocabulary maps categories to their rules.
type Vocabulary struct {
	Categories map[domain.CategoryID]Rules `yaml:"categories"`
}

// LoadVocabulary decodes a YAML vocabulary.
func LoadVocabulary(r io.Reader) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	for id := range v.Categories {
		if !id.IsValid() {
			return nil, fmt.Errorf("vocabulary category %q: %w", id, domain.ErrInvalidInput)
		}
	}
	return &v, nil
}

// LoadVocabularyFile reads a YAML vocabulary from path.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return LoadVocabulary(bytes.NewReader(data))
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := LoadVocabulary(bytes.NewReader(defaultVocabulary))
	if err != nil {
		panic(fmt.Sprintf("built-in vocabulary: %v", err))
	}
	return v
}

// VocabularyFromConfig loads the configured vocabulary, or the built-in one
// when no path is set.
func VocabularyFromConfig(cfg domain.ClassificationConfig) (*Vocabulary, error) {
	if cfg.VocabularyPath == "" {
		return DefaultVocabulary(), nil
	}
	return LoadVocabularyFile(cfg.VocabularyPath)
}

// Words returns every keyword, sorted and without duplicates.
func (v *Vocabulary) Words() []string {
	set := make(map[string]struct{})
	for _, r := range v.Categories {
		for _, k := range r.Keywords {
			set[k] = struct{}{}
		}
	}
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
