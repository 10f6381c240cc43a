package index

import (
	"sort"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/synonyms"
	"github.com/custodia-labs/qamine/internal/tokenizer"
)

// Builder turns pairs into postings and snapshots.
type Builder struct {
	tok *tokenizer.Tokenizer
	exp *synonyms.Expander
	cfg domain.IndexConfig
}

// NewBuilder creates a Builder.
func NewBuilder(tok *tokenizer.Tokenizer, exp *synonyms.Expander, cfg domain.IndexConfig) *Builder {
	return &Builder{tok: tok, exp: exp, cfg: cfg}
}

// QueryTerms tokenises and expands a query exactly as pair text is indexed.
func (b *Builder) QueryTerms(query string) []string {
	return b.exp.ExpandAll(b.tok.Terms(query))
}

// Entries returns the postings of one pair, sorted by field then token.
func (b *Builder) Entries(p *domain.ClassifiedPair) []domain.IndexEntry {
	var out []domain.IndexEntry
	out = append(out, b.fieldEntries(p.ID, domain.FieldQuestion, p.Question, b.cfg.QuestionWeight)...)
	out = append(out, b.fieldEntries(p.ID, domain.FieldAnswer, p.Answer, b.cfg.AnswerWeight)...)
	return out
}

func (b *Builder) fieldEntries(id string, field domain.IndexField, text string, weight float64) []domain.IndexEntry {
	freq := b.tok.Frequencies(text)
	entries := make(map[string]*domain.IndexEntry, len(freq))

	for t, tf := range freq {
		entries[t] = &domain.IndexEntry{Token: t, PairID: id, Field: field, TermFrequency: tf, FieldWeight: weight}
	}
	for t, tf := range freq {
		for _, s := range b.exp.Expand(t) {
			if _, literal := freq[s]; literal {
				continue
			}
			if e, ok := entries[s]; ok {
				e.TermFrequency += tf
				continue
			}
			entries[s] = &domain.IndexEntry{
				Token: s, PairID: id, Field: field,
				TermFrequency: tf, FieldWeight: weight * b.cfg.SynonymWeight,
			}
		}
	}

	out := make([]domain.IndexEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// Build indexes pairs from scratch.
func (b *Builder) Build(pairs []domain.ClassifiedPair) *Snapshot {
	metas := make([]domain.PairMeta, len(pairs))
	var entries []domain.IndexEntry
	for i := range pairs {
		metas[i] = pairs[i].Meta()
		entries = append(entries, b.Entries(&pairs[i])...)
	}
	return b.FromEntries(entries, metas)
}

// FromEntries assembles a snapshot from persisted postings. Postings of
// pairs without metadata are ignored.
func (b *Builder) FromEntries(entries []domain.IndexEntry, metas []domain.PairMeta) *Snapshot {
	s := NewSnapshot()
	s.boost = b.cfg.ConfidenceBoost
	s.questionWeight = b.cfg.QuestionWeight
	for _, m := range metas {
		s.docs[m.ID] = m
	}
	termSets := make(map[string]map[string]struct{})
	for _, e := range entries {
		if _, ok := s.docs[e.PairID]; !ok {
			continue
		}
		s.postings[e.Token] = append(s.postings[e.Token], posting{
			pairID: e.PairID, field: e.Field, tf: e.TermFrequency, weight: e.FieldWeight,
		})
		if termSets[e.PairID] == nil {
			termSets[e.PairID] = make(map[string]struct{})
		}
		termSets[e.PairID][e.Token] = struct{}{}
	}
	for _, list := range s.postings {
		sortPostings(list)
	}
	for id, set := range termSets {
		s.docTerms[id] = sortedKeys(set)
	}
	return s
}

// Append returns a new snapshot with pairs added. Pairs already present are
// replaced: their old postings are removed first. base is not modified.
func (b *Builder) Append(base *Snapshot, pairs []domain.ClassifiedPair) *Snapshot {
	if base == nil {
		base = NewSnapshot()
	}
	next := &Snapshot{
		postings: make(map[string][]posting, len(base.postings)),
		docs:     make(map[string]domain.PairMeta, len(base.docs)+len(pairs)),
		docTerms: make(map[string][]string, len(base.docTerms)+len(pairs)),
		boost:    b.cfg.ConfidenceBoost,

		questionWeight: b.cfg.QuestionWeight,
	}
	for t, list := range base.postings {
		next.postings[t] = list
	}
	for id, m := range base.docs {
		next.docs[id] = m
	}
	for id, terms := range base.docTerms {
		next.docTerms[id] = terms
	}

	replaced := make(map[string]struct{})
	touched := make(map[string]struct{})
	for i := range pairs {
		id := pairs[i].ID
		if terms, ok := base.docTerms[id]; ok {
			replaced[id] = struct{}{}
			for _, t := range terms {
				touched[t] = struct{}{}
			}
		}
	}

	added := make(map[string][]posting)
	for i := range pairs {
		p := &pairs[i]
		set := make(map[string]struct{})
		for _, e := range b.Entries(p) {
			added[e.Token] = append(added[e.Token], posting{
				pairID: e.PairID, field: e.Field, tf: e.TermFrequency, weight: e.FieldWeight,
			})
			set[e.Token] = struct{}{}
			touched[e.Token] = struct{}{}
		}
		next.docs[p.ID] = p.Meta()
		next.docTerms[p.ID] = sortedKeys(set)
	}

	for t := range touched {
		old := base.postings[t]
		list := make([]posting, 0, len(old)+len(added[t]))
		for _, p := range old {
			if _, gone := replaced[p.pairID]; !gone {
				list = append(list, p)
			}
		}
		list = append(list, added[t]...)
		if len(list) == 0 {
			delete(next.postings, t)
			continue
		}
		sortPostings(list)
		next.postings[t] = list
	}
	return next
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
