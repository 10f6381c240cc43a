// Package scorer assigns confidence to candidate pairs and enforces the
// acceptance floor.
package scorer

import (
	"math"
	"unicode/utf8"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/pipeline/cues"
)

// Base confidence per extraction mode.
const (
	BaseDirect          = 0.95
	BaseTutorial        = 0.85
	BaseProblemSolution = 0.75
)

// Adjustment is the size of each additive correction.
const Adjustment = 0.05

// Breakdown explains how a confidence value was reached.
type Breakdown struct {
	Base       float64
	Short      bool
	Slow       bool
	Structured bool
	Final      float64
}

// Scorer is a pure function of a pair's features.
type Scorer struct {
	cfg domain.ScoringConfig
}

// New creates a Scorer.
func New(cfg domain.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Floor returns the configured confidence floor.
func (s *Scorer) Floor() float64 {
	return s.cfg.ConfidenceFloor
}

// Explain computes the score components of p.
func (s *Scorer) Explain(p domain.CandidatePair) Breakdown {
	b := Breakdown{Base: base(p.Mode)}
	score := b.Base

	if utf8.RuneCountInString(p.Answer) < s.cfg.MinAnswerLength {
		b.Short = true
		score -= Adjustment
	}
	if p.WindowSpan > 0 && p.Gap() > p.WindowSpan/2 {
		b.Slow = true
		score -= Adjustment
	}
	if cues.HasStructure(p.Answer) {
		b.Structured = true
		score += Adjustment
	}

	b.Final = clamp(round(score))
	return b
}

// Score returns the scored pair and whether it clears the floor.
func (s *Scorer) Score(p domain.CandidatePair) (domain.ScoredPair, bool) {
	b := s.Explain(p)
	return domain.ScoredPair{CandidatePair: p, Confidence: b.Final}, b.Final >= s.cfg.ConfidenceFloor
}

func base(m domain.ExtractionMode) float64 {
	switch m {
	case domain.ModeDirect:
		return BaseDirect
	case domain.ModeTutorial:
		return BaseTutorial
	case domain.ModeProblemSolution:
		return BaseProblemSolution
	default:
		return 0
	}
}

// round keeps two decimals so that 0.95-0.05 compares equal to 0.90.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
