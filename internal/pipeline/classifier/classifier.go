// Package classifier assigns pairs to the fixed category taxonomy by
// weighted keyword and pattern voting.
package classifier

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/synonyms"
	"github.com/custodia-labs/qamine/internal/tokenizer"
)

// Signal weights of the raw score.
const (
	KeywordWeight = 0.6
	PatternWeight = 0.4
)

// patternSaturation is the pattern match count at which the pattern score reaches 1.
const patternSaturation = 2

const epsilon = 1e-9

// Score is the evaluation of one category for one pair.
type Score struct {
	CategoryID domain.CategoryID `json:"category_id"`
	Raw        float64           `json:"raw"`
	Adjusted   float64           `json:"adjusted"`
	Weight     float64           `json:"weight"`

	// Keywords are the matched vocabulary keywords.
	Keywords []string `json:"keywords,omitempty"`
}

type compiled struct {
	id       domain.CategoryID
	keywords []string
	patterns []*regexp.Regexp
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	cfg   domain.ClassificationConfig
	tok   *tokenizer.Tokenizer
	exp   *synonyms.Expander
	rules []compiled
}

// New compiles vocab. Categories missing from vocab never score.
func New(cfg domain.ClassificationConfig, vocab *Vocabulary, tok *tokenizer.Tokenizer, exp *synonyms.Expander) (*Classifier, error) {
	c := &Classifier{cfg: cfg, tok: tok, exp: exp}
	for _, id := range domain.AllCategories() {
		r := vocab.Categories[id]
		cr := compiled{id: id}
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				cr.keywords = append(cr.keywords, k)
			}
		}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("category %s pattern %q: %w", id, p, domain.ErrInvalidInput)
			}
			cr.patterns = append(cr.patterns, re)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Scores evaluates every category in canonical order.
func (c *Classifier) Scores(question, answer string) []Score {
	text := strings.ToLower(question + " " + answer)
	terms := c.exp.ExpandAll(c.tok.Terms(text))
	present := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		present[t] = struct{}{}
	}

	out := make([]Score, 0, len(c.rules))
	for _, r := range c.rules {
		s := Score{CategoryID: r.id, Weight: c.cfg.Weight(r.id)}

		for _, k := range r.keywords {
			if _, ok := present[k]; ok {
				s.Keywords = append(s.Keywords, k)
			}
		}
		keywordRatio := ratio(len(s.Keywords), len(r.keywords), c.cfg.KeywordSaturation)

		matched := 0
		for _, re := range r.patterns {
			if re.MatchString(text) {
				matched++
			}
		}
		patternScore := ratio(matched, len(r.patterns), patternSaturation)

		s.Raw = KeywordWeight*keywordRatio + PatternWeight*patternScore
		s.Adjusted = s.Raw * s.Weight
		out = append(out, s)
	}
	return out
}

// Classify assigns a category. It never drops a pair.
func (c *Classifier) Classify(p domain.ScoredPair) domain.ClassifiedPair {
	best := c.best(c.Scores(p.Question, p.Answer))

	out := domain.ClassifiedPair{ScoredPair: p}
	if best.Adjusted < c.cfg.Threshold {
		out.CategoryID = c.cfg.FallbackCategory
		out.CategoryConfidence = best.Adjusted
		out.Fallback = true
		return out
	}
	out.CategoryID = best.CategoryID
	out.CategoryConfidence = math.Min(best.Adjusted, 1)
	return out
}

// Suggest returns the k best categories for free text, best first.
func (c *Classifier) Suggest(text string, k int) []Score {
	scores := c.Scores(text, "")
	sort.SliceStable(scores, func(i, j int) bool {
		return c.beats(scores[i], scores[j])
	})
	if k > 0 && k < len(scores) {
		scores = scores[:k]
	}
	return scores
}

// best picks the winner: highest adjusted score, then lower multiplier,
// then canonical order.
func (c *Classifier) best(scores []Score) Score {
	best := scores[0]
	for _, s := range scores[1:] {
		if c.beats(s, best) {
			best = s
		}
	}
	return best
}

func (c *Classifier) beats(a, b Score) bool {
	if math.Abs(a.Adjusted-b.Adjusted) > epsilon {
		return a.Adjusted > b.Adjusted
	}
	return a.Weight < b.Weight
}

// ratio is matched/min(total, saturation), capped at 1.
func ratio(matched, total, saturation int) float64 {
	denom := total
	if saturation > 0 && saturation < denom {
		denom = saturation
	}
	if denom == 0 {
		return 0
	}
	return math.Min(1, float64(matched)/float64(denom))
}
