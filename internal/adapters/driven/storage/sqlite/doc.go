// Package sqlite provides the SQLite-backed implementation of the driven
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database holds:
//
//   - PairStore and PostingStore: classified pairs and the inverted index,
//     so a commit of pairs and postings is a single transaction
//   - JobStore: maintenance job schedules and run history
//
// # Schema
//
// The schema is managed through versioned migrations in migrations/. Each
// migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.qamine/data/qamine.db
//
// # Times
//
// Timestamps are stored as Unix nanoseconds so range filters compare
// numerically, with 0 for the zero time. They are read back in UTC.
package sqlite
