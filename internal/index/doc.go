// Package index maintains the inverted index over classified pairs.
//
// A Snapshot is immutable. Writers build a new Snapshot (a full rebuild or a
// copy-on-write append) and publish it through Index, which readers access
// without locking. Queries therefore observe either the old or the new
// snapshot, never a partial one.
//
// Builder owns tokenisation for both sides: postings are produced by
// Builder.Entries and queries by Builder.QueryTerms, so the two always use
// the same tokenizer and synonym expander.
package index
