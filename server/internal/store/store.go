package store

import (
	"sync"
	"time"

	"github.com/netviz/netviz/pkg/types"
)

// Store is a thread-safe holder for the current snapshot.
type Store struct {
	mu         sync.RWMutex
	snap       *types.Snapshot
	generation uint64
	replacedAt time.Time
	now        func() time.Time // injectable for deterministic tests
}

// New creates a Store serving initial. With a nil initial the store serves an
// empty snapshot at generation 0 until the first Replace, so Read never
// returns nil.
func New(initial *types.Snapshot) *Store {
	s := &Store{now: time.Now}
	if initial == nil {
		s.snap = types.NewSnapshot(nil, "", time.Time{})
		return s
	}
	s.install(initial)
	return s
}

// Read returns the live snapshot. Any number of callers may read at once;
// Read only blocks while a Replace is swapping the pointer.
// Callers must treat the returned snapshot as read-only.
func (s *Store) Read() *types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace installs snap as the live snapshot and returns its generation.
// Readers that already hold the previous snapshot keep it until they are done.
// A nil snap is ignored and the current generation is returned.
// Callers must not modify snap.Networks after calling Replace. Installing a
// snapshot that is already live, such as Replace(Read()), is allowed.
func (s *Store) Replace(snap *types.Snapshot) uint64 {
	if snap == nil {
		return s.Generation()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.install(snap)
}

// install must be called with mu held (or before the store is shared).
// The stored snapshot is a shallow copy carrying the new generation, so the
// caller's value, which readers may already hold, is never written.
func (s *Store) install(snap *types.Snapshot) uint64 {
	s.generation++
	installed := *snap
	installed.Generation = s.generation
	s.snap = &installed
	s.replacedAt = s.now()
	return s.generation
}

// Generation returns the generation of the live snapshot. It is 1 for a
// snapshot passed to New and grows by one per Replace.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// ReplacedAt returns when the live snapshot was installed.
func (s *Store) ReplacedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.replacedAt
}

// Len returns the number of records in the live snapshot.
func (s *Store) Len() int {
	return s.Read().Len()
}
