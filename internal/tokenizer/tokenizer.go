package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Kind describes how a token was produced.
type Kind int

const (
	// KindWord is a dictionary word.
	KindWord Kind = iota
	// KindBigram is an overlapping pair of unknown Chinese characters.
	KindBigram
	// KindChar is an isolated unknown Chinese character.
	KindChar
	// KindLatin is a Latin word, possibly containing digits.
	KindLatin
	// KindNumber is a run of digits.
	KindNumber
)

// Token is one unit of segmented text.
type Token struct {
	Text string
	Kind Kind

	// Pos is the rune offset of the token in the folded text.
	Pos int
}

// Tokenizer segments text. It holds no mutable state.
type Tokenizer struct {
	dict *Dictionary
}

// New creates a tokenizer over dict. A nil dict uses the default dictionary.
func New(dict *Dictionary) *Tokenizer {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Tokenizer{dict: dict}
}

// Dictionary returns the dictionary in use.
func (t *Tokenizer) Dictionary() *Dictionary {
	return t.dict
}

// Tokenize splits text into tokens in reading order.
func (t *Tokenizer) Tokenize(text string) []Token {
	runes := []rune(strings.ToLower(fold(text)))
	var tokens []Token

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case isHan(r):
			j := i
			for j < len(runes) && isHan(runes[j]) {
				j++
			}
			tokens = t.segmentHan(tokens, runes[i:j], i)
			i = j
		case isAlnum(r):
			j := i
			digits := true
			for j < len(runes) && isAlnum(runes[j]) {
				if !unicode.IsDigit(runes[j]) {
					digits = false
				}
				j++
			}
			word := string(runes[i:j])
			if !t.dict.IsStopWord(word) {
				kind := KindLatin
				if digits {
					kind = KindNumber
				}
				tokens = append(tokens, Token{Text: word, Kind: kind, Pos: i})
			}
			i = j
		default:
			i++
		}
	}
	return tokens
}

// Terms returns the token texts of text in order, duplicates included.
func (t *Tokenizer) Terms(text string) []string {
	tokens := t.Tokenize(text)
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// Frequencies counts each distinct term of text.
func (t *Tokenizer) Frequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range t.Tokenize(text) {
		freq[tok.Text]++
	}
	return freq
}

// segmentHan applies forward maximum matching to one run of Han characters.
// offset is the run's rune position in the whole text.
func (t *Tokenizer) segmentHan(tokens []Token, run []rune, offset int) []Token {
	pendingStart := -1

	flush := func(end int) {
		if pendingStart < 0 {
			return
		}
		tokens = t.emitUnknown(tokens, run[pendingStart:end], offset+pendingStart)
		pendingStart = -1
	}

	i := 0
	for i < len(run) {
		matched := 0
		maxLen := t.dict.MaxWordLen()
		if rest := len(run) - i; rest < maxLen {
			maxLen = rest
		}
		for l := maxLen; l >= 2; l-- {
			if t.dict.Contains(string(run[i : i+l])) {
				matched = l
				break
			}
		}
		if matched == 0 {
			if pendingStart < 0 {
				pendingStart = i
			}
			i++
			continue
		}
		flush(i)
		word := string(run[i : i+matched])
		if !t.dict.IsStopWord(word) {
			tokens = append(tokens, Token{Text: word, Kind: KindWord, Pos: offset + i})
		}
		i += matched
	}
	flush(len(run))
	return tokens
}

// emitUnknown handles characters the dictionary did not cover. Single
// character stop words split the span.
func (t *Tokenizer) emitUnknown(tokens []Token, span []rune, offset int) []Token {
	start := 0
	for i := 0; i <= len(span); i++ {
		if i < len(span) && !t.dict.IsStopWord(string(span[i])) {
			continue
		}
		seg := span[start:i]
		switch {
		case len(seg) == 1:
			tokens = append(tokens, Token{Text: string(seg), Kind: KindChar, Pos: offset + start})
		case len(seg) > 1:
			for k := 0; k+1 < len(seg); k++ {
				tokens = append(tokens, Token{Text: string(seg[k : k+2]), Kind: KindBigram, Pos: offset + start + k})
			}
		}
		start = i + 1
	}
	return tokens
}

func fold(s string) string {
	return width.Fold.String(s)
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isAlnum(r rune) bool {
	return (unicode.IsLetter(r) && !isHan(r)) || unicode.IsDigit(r)
}
