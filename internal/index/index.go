package index

import (
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// Index publishes snapshots. Readers never block; writers are serialised.
type Index struct {
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// New creates an index with no snapshot loaded.
func New() *Index {
	return &Index{}
}

// Snapshot returns the live snapshot, or ErrIndexUnavailable before the
// first load.
func (i *Index) Snapshot() (*Snapshot, error) {
	s := i.current.Load()
	if s == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return s, nil
}

// Loaded reports whether a snapshot has been published.
func (i *Index) Loaded() bool {
	return i.current.Load() != nil
}

// Update runs fn with the live snapshot (nil before the first load) under
// the writer lock and publishes its result. When fn fails the live
// snapshot is left untouched.
func (i *Index) Update(fn func(cur *Snapshot) (*Snapshot, error)) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	next, err := fn(i.current.Load())
	if err != nil {
		return err
	}
	if next != nil {
		i.current.Store(next)
	}
	return nil
}
