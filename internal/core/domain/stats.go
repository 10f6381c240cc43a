package domain

import "sort"

// CategoryCount is the number of pairs in one category.
type CategoryCount struct {
	CategoryID CategoryID `json:"category_id"`
	Name       string     `json:"name"`
	Count      int        `json:"count"`
}

// AdvisorCount is the number of pairs answered by one advisor.
type AdvisorCount struct {
	Advisor string `json:"advisor"`
	Count   int    `json:"count"`
}

// ConfidenceBuckets splits pairs by confidence band.
type ConfidenceBuckets struct {
	// High counts pairs with confidence >= 0.9.
	High int `json:"high"`

	// Medium counts pairs with 0.75 <= confidence < 0.9.
	Medium int `json:"medium"`

	// Low counts pairs below 0.75.
	Low int `json:"low"`
}

// Confidence band boundaries.
const (
	HighConfidence   = 0.9
	MediumConfidence = 0.75
)

// Add counts one confidence value.
func (b *ConfidenceBuckets) Add(c float64) {
	switch {
	case c >= HighConfidence:
		b.High++
	case c >= MediumConfidence:
		b.Medium++
	default:
		b.Low++
	}
}

// PopularKeyword is a question token shared by several pairs.
type PopularKeyword struct {
	Keyword string `json:"keyword"`

	// Count is the number of pairs whose question contains Keyword.
	Count int `json:"count"`
}

// Popular keyword limits. A keyword needs MinKeywordPairs pairs to count
// as popular.
const (
	DefaultPopularKeywords = 10
	MaxPopularKeywords     = 50
	MinKeywordPairs        = 2
)

// KnowledgeStats summarises the knowledge base.
type KnowledgeStats struct {
	TotalPairs int             `json:"total_pairs"`
	Categories []CategoryCount `json:"categories"`

	// TopAdvisors holds at most five advisors by pair count.
	TopAdvisors []AdvisorCount `json:"top_advisors"`

	AvgConfidence float64           `json:"avg_confidence"`
	MinConfidence float64           `json:"min_confidence"`
	MaxConfidence float64           `json:"max_confidence"`
	Buckets       ConfidenceBuckets `json:"confidence_buckets"`

	// FallbackPairs counts persisted pairs no category claimed.
	FallbackPairs int `json:"fallback_pairs"`

	// IndexTerms is the number of distinct tokens in the live index.
	IndexTerms int `json:"index_terms"`

	// Counters since process start.
	BatchesIngested   int64 `json:"batches_ingested"`
	FallbacksObserved int64 `json:"fallbacks_observed"`
}

// TopAdvisorLimit bounds KnowledgeStats.TopAdvisors.
const TopAdvisorLimit = 5

// CategoryCounts lists every category in canonical order, including empty ones.
func CategoryCounts(counts map[CategoryID]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for _, id := range AllCategories() {
		out = append(out, CategoryCount{CategoryID: id, Name: id.DisplayName(), Count: counts[id]})
	}
	return out
}

// RankAdvisors orders advisors by pair count, then name, and keeps at most limit.
func RankAdvisors(counts map[string]int, limit int) []AdvisorCount {
	out := make([]AdvisorCount, 0, len(counts))
	for name, n := range counts {
		if name == "" {
			continue
		}
		out = append(out, AdvisorCount{Advisor: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Advisor < out[j].Advisor
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
