package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// ExtractionConfig configures the pattern-based extractor.
type ExtractionConfig struct {
	// DirectWindow is the linking window for direct Q&A.
	DirectWindow time.Duration

	// ProblemWindow is the linking window for problem/solution pairs.
	ProblemWindow time.Duration

	// TutorialWindow is the linking window for tutorial pairs. It is the widest.
	TutorialWindow time.Duration

	// SearchDepth bounds how many messages after an anchor are scanned.
	SearchDepth int

	// ContextBefore is the number of messages kept before the question.
	ContextBefore int

	// ContextAfter is the number of messages kept after the answer.
	ContextAfter int

	// Advisors lists senders who answer but never ask. Empty means anyone may ask.
	Advisors []string
}

// Window returns the linking window of a mode.
func (c ExtractionConfig) Window(m ExtractionMode) time.Duration {
	switch m {
	case ModeDirect:
		return c.DirectWindow
	case ModeProblemSolution:
		return c.ProblemWindow
	case ModeTutorial:
		return c.TutorialWindow
	default:
		return 0
	}
}

// IsAdvisor reports whether sender is a configured advisor.
func (c ExtractionConfig) IsAdvisor(sender string) bool {
	for _, a := range c.Advisors {
		if a == sender {
			return true
		}
	}
	return false
}

// ScoringConfig configures the confidence scorer.
type ScoringConfig struct {
	// MinAnswerLength is the substantive answer length in runes.
	MinAnswerLength int

	// ConfidenceFloor is the minimum confidence of an accepted pair.
	ConfidenceFloor float64
}

// ClassificationConfig configures the classifier.
type ClassificationConfig struct {
	// Threshold is the minimum weighted score of a non-fallback category.
	Threshold float64

	// KeywordSaturation is the keyword count at which the keyword ratio reaches 1.
	KeywordSaturation int

	// FallbackCategory receives pairs no category claims.
	FallbackCategory CategoryID

	// Weights multiplies each category's raw score.
	Weights map[CategoryID]float64

	// VocabularyPath points to a YAML vocabulary. Empty uses the built-in one.
	VocabularyPath string
}

// Weight returns the multiplier of a category.
func (c ClassificationConfig) Weight(id CategoryID) float64 {
	if w, ok := c.Weights[id]; ok {
		return w
	}
	return id.DefaultWeight()
}

// SynonymConfig configures the synonym expander.
type SynonymConfig struct {
	// Path points to a YAML synonym dictionary. Empty uses the built-in one.
	Path string

	// Pinyin adds toneless pinyin aliases for Chinese tokens.
	Pinyin bool
}

// IndexConfig configures postings weights and ranking.
type IndexConfig struct {
	QuestionWeight float64
	AnswerWeight   float64

	// SynonymWeight scales postings of synonym-expanded tokens.
	SynonymWeight float64

	// ConfidenceBoost scales relevance by (1 + boost*confidence).
	ConfidenceBoost float64
}

// ProcessorConfig configures a pair post-processor.
type ProcessorConfig struct {
	Name   string
	Config map[string]any
}

// PipelineConfig is the complete configuration of an ingestion and search run.
type PipelineConfig struct {
	Extraction     ExtractionConfig
	Scoring        ScoringConfig
	Classification ClassificationConfig
	Synonyms       SynonymConfig
	Index          IndexConfig

	// CrossBatchDedup checks fingerprints against persisted pairs.
	CrossBatchDedup bool

	// Workers bounds concurrent conversation processing.
	Workers int

	// Processors lists the post-processors in order.
	Processors []ProcessorConfig
}

// DefaultPipelineConfig returns the documented defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Extraction: ExtractionConfig{
			DirectWindow:   5 * time.Minute,
			ProblemWindow:  10 * time.Minute,
			TutorialWindow: 30 * time.Minute,
			SearchDepth:    15,
			ContextBefore:  2,
			ContextAfter:   1,
		},
		Scoring: ScoringConfig{
			MinAnswerLength: 20,
			ConfidenceFloor: 0.6,
		},
		Classification: ClassificationConfig{
			Threshold:         0.3,
			KeywordSaturation: 3,
			FallbackCategory:  CategoryProductInquiry,
			Weights: map[CategoryID]float64{
				CategoryProductInquiry: 1.0,
				CategoryTechSupport:    1.2,
				CategoryPricing:        1.1,
				CategoryTutorial:       1.0,
				CategoryAfterSales:     1.0,
			},
		},
		Synonyms: SynonymConfig{
			Pinyin: true,
		},
		Index: IndexConfig{
			QuestionWeight:  2.0,
			AnswerWeight:    1.0,
			SynonymWeight:   0.5,
			ConfidenceBoost: 0.1,
		},
		CrossBatchDedup: true,
		Workers:         4,
		Processors: []ProcessorConfig{
			{Name: "sanitizer"},
			{Name: "keywords"},
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c PipelineConfig) Validate() error {
	e := c.Extraction
	if e.DirectWindow <= 0 || e.ProblemWindow <= 0 || e.TutorialWindow <= 0 {
		return fmt.Errorf("extraction windows must be positive: %w", ErrInvalidInput)
	}
	if e.SearchDepth <= 0 {
		return fmt.Errorf("extraction search depth must be positive: %w", ErrInvalidInput)
	}
	if e.ContextBefore < 0 || e.ContextAfter < 0 {
		return fmt.Errorf("context sizes must not be negative: %w", ErrInvalidInput)
	}
	if c.Scoring.ConfidenceFloor < 0 || c.Scoring.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence floor %.2f outside [0,1]: %w", c.Scoring.ConfidenceFloor, ErrInvalidInput)
	}
	if c.Scoring.MinAnswerLength < 0 {
		return fmt.Errorf("minimum answer length must not be negative: %w", ErrInvalidInput)
	}
	if c.Classification.Threshold < 0 {
		return fmt.Errorf("classification threshold must not be negative: %w", ErrInvalidInput)
	}
	if c.Classification.KeywordSaturation <= 0 {
		return fmt.Errorf("keyword saturation must be positive: %w", ErrInvalidInput)
	}
	if !c.Classification.FallbackCategory.IsValid() {
		return fmt.Errorf("fallback category %q: %w", c.Classification.FallbackCategory, ErrInvalidInput)
	}
	for id, w := range c.Classification.Weights {
		if !id.IsValid() {
			return fmt.Errorf("weight for unknown category %q: %w", id, ErrInvalidInput)
		}
		if w <= 0 {
			return fmt.Errorf("weight for %s must be positive: %w", id, ErrInvalidInput)
		}
	}
	if c.Index.QuestionWeight <= 0 || c.Index.AnswerWeight <= 0 {
		return fmt.Errorf("field weights must be positive: %w", ErrInvalidInput)
	}
	if c.Index.SynonymWeight < 0 || c.Index.SynonymWeight > 1 {
		return fmt.Errorf("synonym weight %.2f outside [0,1]: %w", c.Index.SynonymWeight, ErrInvalidInput)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive: %w", ErrInvalidInput)
	}
	return nil
}

// WatchConfig configures the watch-folder ingestion.
type WatchConfig struct {
	// Dir is the directory to watch.
	Dir string

	// Rate is the maximum number of files ingested per second.
	Rate float64

	// Burst is the number of files ingested back to back before throttling.
	Burst int

	// Debounce is how long a file must be quiet before it is ingested.
	Debounce time.Duration
}

// DefaultWatchConfig returns sensible defaults for the watcher.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Rate:     2.0,
		Burst:    4,
		Debounce: 500 * time.Millisecond,
	}
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string

	// AllowedOrigins lists CORS origins. Empty allows all.
	AllowedOrigins []string
}

// DefaultServerConfig returns sensible defaults for the HTTP API.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{Addr: ":8080"}
}
