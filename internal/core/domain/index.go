package domain

// IndexField names the pair field a posting came from.
type IndexField string

const (
	FieldQuestion IndexField = "question"
	FieldAnswer   IndexField = "answer"
)

// IndexEntry is one posting: a token occurring in one field of one pair.
type IndexEntry struct {
	Token         string
	PairID        string
	Field         IndexField
	TermFrequency int

	// FieldWeight already includes the synonym discount for expanded tokens.
	FieldWeight float64
}
