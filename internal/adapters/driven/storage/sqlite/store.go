package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/qamine/internal/adapters/driven/storage/sqlite/migrations"
)

// DBFile is the database file inside the data directory.
const DBFile = "qamine.db"

// pragmas are applied to every connection. WAL lets searches read while an
// ingest commit is in flight.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Store owns the database handle. PairStore and JobStore are views over it.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultDataDir returns ~/.qamine/data.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".qamine", "data"), nil
}

// NewStore opens dataDir/qamine.db, creating it and running pending
// migrations. An empty dataDir means DefaultDataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		d, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = d
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PairStore returns the pair, posting and fingerprint store.
func (s *Store) PairStore() *PairStore {
	return &PairStore{store: s}
}

// JobStore returns the maintenance job store.
func (s *Store) JobStore() *JobStore {
	return &JobStore{store: s}
}
