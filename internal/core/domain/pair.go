package domain

import "time"

// ExtractionMode identifies which recognition pattern produced a pair.
type ExtractionMode string

const (
	// ModeDirect is an explicit question answered by another participant.
	ModeDirect ExtractionMode = "direct"

	// ModeProblemSolution is a reported problem followed by a fix.
	ModeProblemSolution ExtractionMode = "problem_solution"

	// ModeTutorial is a request for instructions answered with steps.
	ModeTutorial ExtractionMode = "tutorial"
)

// IsValid returns true if the mode is one of the three known modes.
func (m ExtractionMode) IsValid() bool {
	switch m {
	case ModeDirect, ModeProblemSolution, ModeTutorial:
		return true
	}
	return false
}

// String returns the mode identifier.
func (m ExtractionMode) String() string {
	return string(m)
}

// CandidatePair is a question/answer pair as emitted by the extractor.
type CandidatePair struct {
	ConversationID string         `json:"conversation_id"`
	Question       string         `json:"question"`
	Answer         string         `json:"answer"`
	Asker          string         `json:"asker"`
	Advisor        string         `json:"advisor"`
	QuestionTime   time.Time      `json:"question_time"`
	AnswerTime     time.Time      `json:"answer_time"`
	Mode           ExtractionMode `json:"mode"`

	// WindowSpan is the linking window of Mode.
	WindowSpan time.Duration `json:"window_span"`

	// Context holds neighbouring messages formatted as "sender: content".
	Context []string `json:"context,omitempty"`
}

// Gap returns the time between question and answer.
func (p CandidatePair) Gap() time.Duration {
	return p.AnswerTime.Sub(p.QuestionTime)
}

// ScoredPair is a candidate that cleared the confidence floor.
type ScoredPair struct {
	CandidatePair

	// Confidence is in [floor, 1.0].
	Confidence float64 `json:"confidence"`

	// Fingerprint identifies the normalised content. Set by deduplication.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ClassifiedPair is the persisted knowledge unit.
type ClassifiedPair struct {
	ScoredPair

	// ID is assigned at commit time.
	ID string `json:"id"`

	// CategoryID is always one of the fixed categories.
	CategoryID         CategoryID `json:"category_id"`
	CategoryConfidence float64    `json:"category_confidence"`

	// Fallback is true when no category cleared the threshold.
	Fallback bool `json:"fallback"`

	// Keywords are the most characteristic tokens of the pair.
	Keywords []string `json:"keywords,omitempty"`

	// SourceFile is the transcript the pair was mined from, if known.
	SourceFile string    `json:"source_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PairMeta is the subset of a pair the index needs for filtering and
// tie-breaking without loading pair text.
type PairMeta struct {
	ID           string
	CategoryID   CategoryID
	Advisor      string
	Confidence   float64
	QuestionTime time.Time
}

// Meta extracts the index metadata of a pair.
func (p *ClassifiedPair) Meta() PairMeta {
	return PairMeta{
		ID:           p.ID,
		CategoryID:   p.CategoryID,
		Advisor:      p.Advisor,
		Confidence:   p.Confidence,
		QuestionTime: p.QuestionTime,
	}
}

// FingerprintRef identifies a persisted pair by fingerprint for
// cross-batch duplicate resolution.
type FingerprintRef struct {
	PairID       string
	Fingerprint  string
	Confidence   float64
	QuestionTime time.Time
}

// IngestResult reports the outcome of ingesting one conversation.
type IngestResult struct {
	ConversationID string `json:"conversation_id"`

	// Accepted counts newly persisted pairs.
	Accepted int `json:"accepted"`

	// Rejected counts candidates below the confidence floor.
	Rejected int `json:"rejected"`

	// Duplicates counts pairs dropped by fingerprint collision.
	Duplicates int `json:"duplicates"`

	// Replaced counts persisted pairs overwritten by a higher-confidence duplicate.
	Replaced int `json:"replaced"`

	// Fallbacks counts pairs that received the fallback category.
	Fallbacks int `json:"fallbacks"`

	// Pairs holds the accepted and replacing pairs.
	Pairs []ClassifiedPair `json:"pairs,omitempty"`
}

// ConversationFailure records why one conversation of a batch failed.
type ConversationFailure struct {
	ConversationID string `json:"conversation_id"`
	Err            error  `json:"-"`
	Message        string `json:"error"`
}

// BatchResult aggregates per-conversation outcomes of a batch ingestion.
type BatchResult struct {
	Results  []IngestResult        `json:"results"`
	Failures []ConversationFailure `json:"failures,omitempty"`
}

// Totals sums the per-conversation counters.
func (b *BatchResult) Totals() IngestResult {
	var t IngestResult
	for i := range b.Results {
		r := &b.Results[i]
		t.Accepted += r.Accepted
		t.Rejected += r.Rejected
		t.Duplicates += r.Duplicates
		t.Replaced += r.Replaced
		t.Fallbacks += r.Fallbacks
	}
	return t
}
