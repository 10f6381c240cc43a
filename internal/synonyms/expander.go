// Package synonyms expands tokens into interchangeable tokens using a static
// dictionary, optionally adding toneless pinyin aliases for Chinese tokens.
//
// An Expander is immutable after construction and safe for concurrent use.
// Indexing and querying must share the same Expander.
package synonyms

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

//go:embed default_synonyms.yaml
var defaultDictionary []byte

// file is the on-disk dictionary format.
type file struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// Expander maps tokens to their synonyms.
type Expander struct {
	related    map[string][]string
	pinyin     bool
	pinyinArgs pinyin.Args
}

// Option configures an Expander.
type Option func(*Expander)

// WithPinyin enables or disables pinyin aliases.
func WithPinyin(enabled bool) Option {
	return func(e *Expander) {
		e.pinyin = enabled
	}
}

// New builds an expander from canonical → synonyms groups.
func New(groups map[string][]string, opts ...Option) *Expander {
	args := pinyin.NewArgs()
	args.Style = pinyin.NORMAL
	args.Heteronym = false

	e := &Expander{
		related:    make(map[string][]string),
		pinyinArgs: args,
	}
	for _, opt := range opts {
		opt(e)
	}

	sets := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if a == b {
			return
		}
		if sets[a] == nil {
			sets[a] = make(map[string]struct{})
		}
		sets[a][b] = struct{}{}
	}
	for key, values := range groups {
		members := append([]string{key}, values...)
		for i := range members {
			members[i] = strings.ToLower(strings.TrimSpace(members[i]))
		}
		for _, a := range members {
			for _, b := range members {
				if a != "" && b != "" {
					link(a, b)
				}
			}
		}
	}
	for word, set := range sets {
		list := make([]string, 0, len(set))
		for other := range set {
			list = append(list, other)
		}
		sort.Strings(list)
		e.related[word] = list
	}
	return e
}

// Load reads a YAML dictionary.
func Load(r io.Reader, opts ...Option) (*Expander, error) {
	var f file
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode synonym dictionary: %w", err)
	}
	return New(f.Synonyms, opts...), nil
}

// LoadFile reads a YAML dictionary from path.
func LoadFile(path string, opts ...Option) (*Expander, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonym dictionary: %w", err)
	}
	return Load(bytes.NewReader(data), opts...)
}

// Default returns the built-in dictionary.
func Default(opts ...Option) *Expander {
	e, err := Load(bytes.NewReader(defaultDictionary), opts...)
	if err != nil {
		panic(fmt.Sprintf("built-in synonym dictionary: %v", err))
	}
	return e
}

// FromConfig loads the configured dictionary, or the built-in one when no
// path is set.
func FromConfig(cfg domain.SynonymConfig) (*Expander, error) {
	if cfg.Path == "" {
		return Default(WithPinyin(cfg.Pinyin)), nil
	}
	return LoadFile(cfg.Path, WithPinyin(cfg.Pinyin))
}

// Expand returns the tokens interchangeable with token, excluding token
// itself. The result is deterministic.
func (e *Expander) Expand(token string) []string {
	related := e.related[token]
	alias := e.pinyinAlias(token)
	if alias == "" || alias == token {
		return related
	}
	out := make([]string, 0, len(related)+1)
	out = append(out, related...)
	for _, r := range related {
		if r == alias {
			return out
		}
	}
	return append(out, alias)
}

// ExpandAll returns tokens followed by their expansions, without duplicates.
func (e *Expander) ExpandAll(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range tokens {
		add(t)
	}
	for _, t := range tokens {
		for _, s := range e.Expand(t) {
			add(s)
		}
	}
	return out
}

// Words returns every dictionary word, sorted. The tokenizer dictionary
// includes these so synonyms segment as whole words.
func (e *Expander) Words() []string {
	words := make([]string, 0, len(e.related))
	for w := range e.related {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Len returns the number of words with at least one synonym.
func (e *Expander) Len() int {
	return len(e.related)
}

// pinyinAlias returns the toneless pinyin of an all-Han token.
func (e *Expander) pinyinAlias(token string) string {
	if !e.pinyin || token == "" {
		return ""
	}
	for _, r := range token {
		if !unicode.Is(unicode.Han, r) {
			return ""
		}
	}
	return strings.Join(pinyin.LazyConvert(token, &e.pinyinArgs), "")
}
