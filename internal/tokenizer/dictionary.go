package tokenizer

import (
	_ "embed"
	"strings"
	"unicode/utf8"
)

//go:embed words.txt
var defaultWords string

//go:embed stopwords.txt
var defaultStopWords string

// Dictionary is an immutable word list used for segmentation.
// It is safe for concurrent use.
type Dictionary struct {
	words  map[string]struct{}
	stop   map[string]struct{}
	maxLen int
}

// NewDictionary builds a dictionary from word lists. Entries are lowercased
// and blank entries ignored. Stop words are recognised as words and then
// dropped from output.
func NewDictionary(stopWords []string, wordLists ...[]string) *Dictionary {
	d := &Dictionary{
		words: make(map[string]struct{}),
		stop:  make(map[string]struct{}, len(stopWords)),
	}
	for _, w := range stopWords {
		w = normaliseEntry(w)
		if w == "" {
			continue
		}
		d.stop[w] = struct{}{}
		d.add(w)
	}
	for _, list := range wordLists {
		for _, w := range list {
			if w = normaliseEntry(w); w != "" {
				d.add(w)
			}
		}
	}
	return d
}

// DefaultDictionary returns the built-in dictionary.
func DefaultDictionary() *Dictionary {
	return NewDictionary(DefaultStopWords(), DefaultWords())
}

// DefaultWords returns the built-in segmentation words.
func DefaultWords() []string {
	return parseList(defaultWords)
}

// DefaultStopWords returns the built-in stop words.
func DefaultStopWords() []string {
	return parseList(defaultStopWords)
}

func (d *Dictionary) add(w string) {
	d.words[w] = struct{}{}
	if n := utf8.RuneCountInString(w); n > d.maxLen {
		d.maxLen = n
	}
}

// Contains reports whether w is a dictionary word.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.words[w]
	return ok
}

// IsStopWord reports whether w is dropped from token streams.
func (d *Dictionary) IsStopWord(w string) bool {
	_, ok := d.stop[w]
	return ok
}

// Len returns the number of words, stop words included.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// MaxWordLen returns the longest entry in runes.
func (d *Dictionary) MaxWordLen() int {
	return d.maxLen
}

func normaliseEntry(w string) string {
	return strings.ToLower(fold(strings.TrimSpace(w)))
}

// parseList splits a whitespace separated list, skipping # comment lines.
func parseList(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.Fields(line)...)
	}
	return out
}
