// Package domain holds the types every other qamine package speaks:
// chat messages as exported and after cleaning, question/answer pairs as
// they move from candidate to scored to classified, the five knowledge
// categories, index postings, search options and results, statistics,
// settings and maintenance job records.
//
// It imports only the standard library. Nothing here performs I/O.
package domain
