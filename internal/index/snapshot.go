package index

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

type posting struct {
	pairID string
	field  domain.IndexField
	tf     int
	weight float64
}

// Hit is one scored pair.
type Hit struct {
	PairID string
	Score  float64
	Meta   domain.PairMeta
}

// Snapshot is an immutable view of the index.
type Snapshot struct {
	postings map[string][]posting
	docs     map[string]domain.PairMeta
	docTerms map[string][]string
	boost    float64

	// questionWeight is the weight of literal question postings. Lighter
	// question postings come from synonym expansion.
	questionWeight float64
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		postings: make(map[string][]posting),
		docs:     make(map[string]domain.PairMeta),
		docTerms: make(map[string][]string),
	}
}

// Len returns the number of indexed pairs.
func (s *Snapshot) Len() int {
	return len(s.docs)
}

// Terms returns the number of distinct tokens.
func (s *Snapshot) Terms() int {
	return len(s.postings)
}

// Has reports whether a pair is indexed.
func (s *Snapshot) Has(pairID string) bool {
	_, ok := s.docs[pairID]
	return ok
}

// Meta returns the indexed metadata of a pair.
func (s *Snapshot) Meta(pairID string) (domain.PairMeta, bool) {
	m, ok := s.docs[pairID]
	return m, ok
}

// Entries returns every posting sorted by token, pair and field.
func (s *Snapshot) Entries() []domain.IndexEntry {
	tokens := make([]string, 0, len(s.postings))
	for t := range s.postings {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	var out []domain.IndexEntry
	for _, t := range tokens {
		for _, p := range s.postings[t] {
			out = append(out, domain.IndexEntry{
				Token:         t,
				PairID:        p.pairID,
				Field:         p.field,
				TermFrequency: p.tf,
				FieldWeight:   p.weight,
			})
		}
	}
	return out
}

// Search scores every pair that contains at least one term and passes
// filter. Filtering happens before scoring so the result length is the
// exact match total. Results are unordered.
func (s *Snapshot) Search(terms []string, filter func(domain.PairMeta) bool) []Hit {
	n := float64(len(s.docs))
	scores := make(map[string]float64)
	seen := make(map[string]struct{}, len(terms))

	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		list := s.postings[t]
		if len(list) == 0 {
			continue
		}
		idf := math.Log(1 + n/float64(docFreq(list)))
		for _, p := range list {
			meta := s.docs[p.pairID]
			if filter != nil && !filter(meta) {
				continue
			}
			scores[p.pairID] += float64(p.tf) * p.weight * idf
		}
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		meta := s.docs[id]
		hits = append(hits, Hit{
			PairID: id,
			Score:  score * (1 + s.boost*meta.Confidence),
			Meta:   meta,
		})
	}
	return hits
}

// All returns every pair passing filter with a zero score.
func (s *Snapshot) All(filter func(domain.PairMeta) bool) []Hit {
	hits := make([]Hit, 0, len(s.docs))
	for id, meta := range s.docs {
		if filter != nil && !filter(meta) {
			continue
		}
		hits = append(hits, Hit{PairID: id, Meta: meta})
	}
	return hits
}

// Suggest returns tokens starting with prefix, most frequent first.
func (s *Snapshot) Suggest(prefix string, limit int) []domain.Suggestion {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil
	}
	var out []domain.Suggestion
	for t, list := range s.postings {
		if strings.HasPrefix(t, prefix) && t != prefix {
			out = append(out, domain.Suggestion{Term: t, Pairs: docFreq(list)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pairs != out[j].Pairs {
			return out[i].Pairs > out[j].Pairs
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Popular returns question tokens of at least two runes that appear in the
// questions of at least minPairs pairs, most common first. Synonym
// expansions and tokens without a letter are skipped.
func (s *Snapshot) Popular(minPairs, limit int) []domain.PopularKeyword {
	var out []domain.PopularKeyword
	for t, list := range s.postings {
		if utf8.RuneCountInString(t) < 2 || !strings.ContainsFunc(t, unicode.IsLetter) {
			continue
		}
		n := 0
		prev := ""
		for _, p := range list {
			if p.field != domain.FieldQuestion || p.weight < s.questionWeight || p.pairID == prev {
				continue
			}
			n++
			prev = p.pairID
		}
		if n >= minPairs {
			out = append(out, domain.PopularKeyword{Keyword: t, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// docFreq counts distinct pairs in a sorted posting list.
func docFreq(list []posting) int {
	n := 0
	prev := ""
	for i, p := range list {
		if i == 0 || p.pairID != prev {
			n++
			prev = p.pairID
		}
	}
	return n
}

func sortPostings(list []posting) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].pairID != list[j].pairID {
			return list[i].pairID < list[j].pairID
		}
		return list[i].field < list[j].field
	})
}
