// Package dedup collapses pairs with identical normalised content.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/width"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

const separator = "\x1f"

// Normalize folds width, lowercases and keeps only letters and digits.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(width.Fold.String(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fingerprint returns the content fingerprint of a question/answer pair.
func Fingerprint(question, answer string) string {
	sum := sha256.Sum256([]byte(Normalize(question) + separator + Normalize(answer)))
	return hex.EncodeToString(sum[:])
}

// Better reports whether pair a should be kept over pair b: higher
// confidence first, then the earlier question.
func Better(aConf float64, aTime time.Time, bConf float64, bTime time.Time) bool {
	if aConf != bConf {
		return aConf > bConf
	}
	return aTime.Before(bTime)
}

// Collapse fingerprints pairs and keeps the best of each fingerprint.
// Survivors keep the position of the first occurrence. It returns the
// survivors and the number dropped.
func Collapse(pairs []domain.ScoredPair) ([]domain.ScoredPair, int) {
	index := make(map[string]int, len(pairs))
	kept := make([]domain.ScoredPair, 0, len(pairs))
	dropped := 0

	for _, p := range pairs {
		p.Fingerprint = Fingerprint(p.Question, p.Answer)
		pos, seen := index[p.Fingerprint]
		if !seen {
			index[p.Fingerprint] = len(kept)
			kept = append(kept, p)
			continue
		}
		dropped++
		cur := kept[pos]
		if Better(p.Confidence, p.QuestionTime, cur.Confidence, cur.QuestionTime) {
			kept[pos] = p
		}
	}
	return kept, dropped
}

// Resolution is the outcome of comparing a new pair with a known one.
type Resolution int

const (
	// Insert means no pair with the fingerprint is known.
	Insert Resolution = iota
	// Drop means the known pair wins.
	Drop
	// Replace means the new pair overwrites the known pair.
	Replace
)

// Resolve decides what to do with p given the persisted pair with the same
// fingerprint, if any. Only a strictly higher confidence replaces a
// persisted pair.
func Resolve(p domain.ScoredPair, known *domain.FingerprintRef) Resolution {
	if known == nil {
		return Insert
	}
	if p.Confidence > known.Confidence {
		return Replace
	}
	return Drop
}

// Seen is the fingerprint set of one ingestion run. It is not safe for
// concurrent use; the ingest commit phase serialises access.
type Seen struct {
	refs map[string]domain.FingerprintRef
}

// NewSeen creates an empty run-scoped set.
func NewSeen() *Seen {
	return &Seen{refs: make(map[string]domain.FingerprintRef)}
}

// Lookup returns the pair remembered under fp.
func (s *Seen) Lookup(fp string) (*domain.FingerprintRef, bool) {
	ref, ok := s.refs[fp]
	if !ok {
		return nil, false
	}
	return &ref, true
}

// Remember records a committed pair.
func (s *Seen) Remember(p *domain.ClassifiedPair) {
	s.refs[p.Fingerprint] = domain.FingerprintRef{
		PairID:       p.ID,
		Fingerprint:  p.Fingerprint,
		Confidence:   p.Confidence,
		QuestionTime: p.QuestionTime,
	}
}

// Len returns the number of remembered fingerprints.
func (s *Seen) Len() int {
	return len(s.refs)
}
