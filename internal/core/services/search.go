package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/width"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/index"
	"github.com/custodia-labs/qamine/internal/logger"
	"github.com/custodia-labs/qamine/internal/pipeline"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

const (
	maxHighlights     = 3
	maxHighlightRunes = 120

	defaultSuggestions = 10
	maxSuggestions     = 50
)

// SearchService ranks pairs against the live index snapshot.
type SearchService struct {
	comps *pipeline.Components
	idx   *index.Index
	pairs driven.PairStore
}

// NewSearchService creates a new search service.
func NewSearchService(comps *pipeline.Components, idx *index.Index, pairs driven.PairStore) *SearchService {
	return &SearchService{
		comps: comps,
		idx:   idx,
		pairs: pairs,
	}
}

// Search ranks pairs against query. An empty query lists the pairs that
// pass the filters, best confidence first.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error) {
	opts = opts.Normalised()
	if err := validateFilters(opts.Filters); err != nil {
		return nil, err
	}

	snap, err := s.idx.Snapshot()
	if err != nil {
		return nil, err
	}

	filter := opts.Filters.Matches
	var hits []index.Hit
	var terms []string
	if strings.TrimSpace(query) == "" {
		hits = snap.All(filter)
	} else {
		terms = s.comps.Index.QueryTerms(query)
		if len(terms) > 0 {
			hits = snap.Search(terms, filter)
		}
	}
	sortHits(hits, opts.Sort)

	page := &domain.SearchPage{
		Items:    []domain.SearchHit{},
		Total:    len(hits),
		Page:     opts.Page,
		PageSize: opts.PageSize,
	}

	window := paginate(hits, opts.Page, opts.PageSize)
	if len(window) == 0 {
		return page, nil
	}

	ids := make([]string, len(window))
	for i, h := range window {
		ids[i] = h.PairID
	}
	pairs, err := s.pairs.GetPairs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}
	byID := make(map[string]domain.ClassifiedPair, len(pairs))
	for _, p := range pairs {
		byID[p.ID] = p
	}

	for _, h := range window {
		p, ok := byID[h.PairID]
		if !ok {
			// Indexed but no longer persisted; the next reindex drops it.
			logger.Warn("search: pair %s missing from store", h.PairID)
			continue
		}
		page.Items = append(page.Items, domain.SearchHit{
			Pair:       p,
			Score:      h.Score,
			Highlights: generateHighlights(&p, terms),
		})
	}

	logger.Debug("search: query=%q terms=%d total=%d page=%d", query, len(terms), page.Total, page.Page)
	return page, nil
}

// Suggest returns indexed terms starting with prefix, most common first.
func (s *SearchService) Suggest(_ context.Context, prefix string, limit int) ([]domain.Suggestion, error) {
	snap, err := s.idx.Snapshot()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSuggestions
	}
	if limit > maxSuggestions {
		limit = maxSuggestions
	}
	prefix = strings.ToLower(width.Fold.String(strings.TrimSpace(prefix)))
	return snap.Suggest(prefix, limit), nil
}

func validateFilters(f domain.SearchFilters) error {
	if f.CategoryID != "" && !f.CategoryID.IsValid() {
		return fmt.Errorf("unknown category %q: %w", f.CategoryID, domain.ErrInvalidInput)
	}
	if r := f.DateRange; r != nil && !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("date range starts after it ends: %w", domain.ErrInvalidInput)
	}
	return nil
}

// sortHits orders hits for the requested sort. Every order ends with the
// pair ID so pagination is stable.
func sortHits(hits []index.Hit, order domain.SortOrder) {
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		switch order {
		case domain.SortTime:
			if !a.Meta.QuestionTime.Equal(b.Meta.QuestionTime) {
				return a.Meta.QuestionTime.After(b.Meta.QuestionTime)
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		case domain.SortConfidence:
			if a.Meta.Confidence != b.Meta.Confidence {
				return a.Meta.Confidence > b.Meta.Confidence
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if !a.Meta.QuestionTime.Equal(b.Meta.QuestionTime) {
				return a.Meta.QuestionTime.After(b.Meta.QuestionTime)
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if a.Meta.Confidence != b.Meta.Confidence {
				return a.Meta.Confidence > b.Meta.Confidence
			}
			if !a.Meta.QuestionTime.Equal(b.Meta.QuestionTime) {
				return a.Meta.QuestionTime.After(b.Meta.QuestionTime)
			}
		}
		return a.PairID < b.PairID
	})
}

// paginate returns the hits of 1-based page. Pages past the end, however
// large, are empty.
func paginate(hits []index.Hit, page, size int) []index.Hit {
	if page < 1 || size < 1 || page-1 >= (len(hits)+size-1)/size {
		return nil
	}
	offset := (page - 1) * size
	return hits[offset:min(offset+size, len(hits))]
}

// generateHighlights returns up to three sentences of the pair that contain
// a query term, question first.
func generateHighlights(p *domain.ClassifiedPair, terms []string) []string {
	if len(terms) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range append(splitSentences(p.Question), splitSentences(p.Answer)...) {
		lower := strings.ToLower(width.Fold.String(sentence))
		for _, term := range terms {
			if strings.Contains(lower, term) {
				highlights = append(highlights, truncateRunes(sentence, maxHighlightRunes))
				break
			}
		}
		if len(highlights) >= maxHighlights {
			break
		}
	}
	return highlights
}

// splitSentences splits text after Chinese or Latin sentence terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		switch r {
		case '。', '！', '？', '；', '.', '!', '?', ';', '\n':
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
