package guard

import (
	"context"
	"sync"
	"time"
)

// CounterStore tracks consecutive failed login attempts per identifier. The
// durable account row is the source of truth for lock state; entries here may
// be evicted at any time without affecting correctness.
//
// The in-memory implementation below is only safe for a single-process
// deployment. Horizontal scaling requires an implementation backed by a
// shared store with atomic increments; the interface is the contract either
// way.
type CounterStore interface {
	// Increment adds a failure for the identifier and returns the resulting
	// consecutive-failure count. The first failure creates the entry.
	Increment(ctx context.Context, identifier string) (int, error)

	// Get returns the current consecutive-failure count, 0 if no entry exists.
	Get(ctx context.Context, identifier string) (int, error)

	// Reset removes the entry for the identifier. Called on success, on lock
	// escalation and by the administrative unlock.
	Reset(ctx context.Context, identifier string) error
}

type counterEntry struct {
	count        int
	firstFailure time.Time
	lastFailure  time.Time
}

// MemoryCounterStore is a mutex-guarded in-memory CounterStore.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	now     func() time.Time
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		entries: make(map[string]*counterEntry),
		now:     time.Now,
	}
}

func (s *MemoryCounterStore) Increment(ctx context.Context, identifier string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[identifier]
	if !ok {
		e = &counterEntry{firstFailure: now}
		s.entries[identifier] = e
	}

	e.count++
	e.lastFailure = now

	return e.count, nil
}

func (s *MemoryCounterStore) Get(ctx context.Context, identifier string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identifier]
	if !ok {
		return 0, nil
	}
	return e.count, nil
}

func (s *MemoryCounterStore) Reset(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, identifier)
	return nil
}

// Sweep evicts entries whose last failure is older than maxIdle and returns
// the number of entries removed. Stale entries belong to identifiers whose
// lock deadline has passed; dropping them restarts their count from zero,
// which the lock policy permits.
func (s *MemoryCounterStore) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0

	for identifier, e := range s.entries {
		if e.lastFailure.Before(cutoff) {
			delete(s.entries, identifier)
			removed++
		}
	}

	return removed
}

// Len reports the number of live entries. Used by the sweep task for logging.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
