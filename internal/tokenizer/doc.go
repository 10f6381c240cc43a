// Package tokenizer splits Chinese and mixed Chinese/Latin text into search
// tokens.
//
// Chinese runs are segmented by forward maximum matching against a
// dictionary. Characters the dictionary does not cover are emitted as
// overlapping bigrams, or as a single character when isolated. Latin words
// and numbers are lowercased and kept whole. Full-width forms are folded to
// their narrow equivalents first, so "ＡＰＩ" and "api" yield the same token.
//
// The same Tokenizer value must serve indexing and querying.
package tokenizer
