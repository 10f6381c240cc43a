// Package normalisers provides implementations of the Normaliser interface
// for exported chat transcripts. Each normaliser knows how to read messages
// from one export format.
//
// Normalisers are registered with the Registry at startup; see
// RegisterDefaults.
package normalisers
