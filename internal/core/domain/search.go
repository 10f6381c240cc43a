package domain

import (
	"fmt"
	"time"
)

// SortOrder selects the primary ordering of search results.
type SortOrder string

const (
	// SortRelevance orders by relevance, then confidence, then recency.
	SortRelevance SortOrder = "relevance"

	// SortTime orders by question time, newest first.
	SortTime SortOrder = "time"

	// SortConfidence orders by confidence, then relevance.
	SortConfidence SortOrder = "confidence"
)

// ParseSortOrder parses a user-supplied sort order. Empty means relevance.
func ParseSortOrder(s string) (SortOrder, error) {
	if s == "" {
		return SortRelevance, nil
	}
	o := SortOrder(s)
	if !o.IsValid() {
		return "", fmt.Errorf("unknown sort order %q: %w", s, ErrInvalidInput)
	}
	return o, nil
}

// IsValid returns true if the sort order is recognised.
func (s SortOrder) IsValid() bool {
	switch s {
	case SortRelevance, SortTime, SortConfidence:
		return true
	default:
		return false
	}
}

// Paging defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DateRange bounds question time. Zero bounds are open. Both ends are inclusive.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Contains reports whether t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// DateLayout is the calendar date format accepted by the outer surfaces.
const DateLayout = "2006-01-02"

// ParseDateRange parses YYYY-MM-DD bounds in loc. The upper bound covers
// the whole day. Both empty returns nil.
func ParseDateRange(from, to string, loc *time.Location) (*DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	var r DateRange
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, loc)
		if err != nil {
			return nil, fmt.Errorf("from date %q: %w", from, ErrInvalidInput)
		}
		r.From = t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return nil, fmt.Errorf("to date %q: %w", to, ErrInvalidInput)
		}
		r.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return nil, fmt.Errorf("date range starts after it ends: %w", ErrInvalidInput)
	}
	return &r, nil
}

// SearchFilters restricts the candidate set before ranking.
type SearchFilters struct {
	// CategoryID restricts to one category. Empty means any.
	CategoryID CategoryID `json:"category_id,omitempty"`

	// Advisor restricts to pairs answered by this sender. Empty means any.
	Advisor string `json:"advisor,omitempty"`

	// DateRange restricts by question time. Nil means unbounded.
	DateRange *DateRange `json:"date_range,omitempty"`
}

// Matches reports whether a pair passes every filter.
func (f SearchFilters) Matches(m PairMeta) bool {
	if f.CategoryID != "" && m.CategoryID != f.CategoryID {
		return false
	}
	if f.Advisor != "" && m.Advisor != f.Advisor {
		return false
	}
	if f.DateRange != nil && !f.DateRange.Contains(m.QuestionTime) {
		return false
	}
	return true
}

// SearchOptions configures a search query.
type SearchOptions struct {
	Filters SearchFilters

	// Page is 1-based.
	Page int

	// PageSize is clamped to MaxPageSize.
	PageSize int

	// Sort defaults to SortRelevance.
	Sort SortOrder
}

// Normalised returns a copy with paging defaults applied.
func (o SearchOptions) Normalised() SearchOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if !o.Sort.IsValid() {
		o.Sort = SortRelevance
	}
	return o
}

// SearchHit is a single ranked result.
type SearchHit struct {
	// Pair is the matched pair.
	Pair ClassifiedPair `json:"pair"`

	// Score is the relevance score.
	Score float64 `json:"score"`

	// Highlights contains snippets with matched terms.
	Highlights []string `json:"highlights,omitempty"`
}

// SearchPage is one page of results plus the total match count.
type SearchPage struct {
	Items    []SearchHit `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Suggestion is an indexed term offered for query completion.
type Suggestion struct {
	Term string `json:"term"`

	// Pairs is the number of pairs containing the term.
	Pairs int `json:"pairs"`
}
