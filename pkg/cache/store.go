// Package cache holds VNDB responses in memory with per-entry expiry and a
// bounded entry count.
package cache

import (
	"sync"
	"time"

	"github.com/pario-ai/vndb-mcp/pkg/clock"
	"github.com/pario-ai/vndb-mcp/pkg/models"
)

// Store is a key/value cache with a fixed TTL and a fixed maximum size.
//
// Entries are replace-only. When the store is full and a new key arrives, the
// entry with the oldest storedAt is evicted. Access does not refresh an entry.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	maxSize int
	ttl     time.Duration
	clock   clock.Clock
	seq     uint64

	hits      int64
	misses    int64
	evictions int64
	expired   int64
}

type entry[V any] struct {
	value    V
	storedAt time.Time
	// seq breaks storedAt ties so eviction follows insertion order.
	seq uint64
}

// New creates a Store. maxSize below 1 is treated as 1.
func New[V any](maxSize int, ttl time.Duration, clk clock.Clock) *Store[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Store[V]{
		entries: make(map[string]entry[V], maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		clock:   clk,
	}
}

// Get returns the value for key. Expired entries are deleted and reported as
// absent.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		var zero V
		return zero, false
	}
	if s.isExpired(e, s.clock.Now()) {
		delete(s.entries, key)
		s.expired++
		s.misses++
		var zero V
		return zero, false
	}
	s.hits++
	return e.value, true
}

// Set stores value under key, evicting the oldest entry if the store is full
// and key is new.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}
	s.seq++
	s.entries[key] = entry[V]{value: value, storedAt: s.clock.Now(), seq: s.seq}
}

// Delete removes key. Missing keys are ignored.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// ClearExpired removes every expired entry and returns how many were removed.
func (s *Store[V]) ClearExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, e := range s.entries {
		if s.isExpired(e, now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.expired += int64(removed)
	return removed
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns cache performance counters.
func (s *Store[V]) Stats() models.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CacheStats{
		Entries:   int64(len(s.entries)),
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Expired:   s.expired,
	}
}

func (s *Store[V]) isExpired(e entry[V], now time.Time) bool {
	return now.Sub(e.storedAt) > s.ttl
}

func (s *Store[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldest    entry[V]
		found     bool
	)
	for key, e := range s.entries {
		if !found || e.storedAt.Before(oldest.storedAt) ||
			(e.storedAt.Equal(oldest.storedAt) && e.seq < oldest.seq) {
			oldestKey, oldest, found = key, e, true
		}
	}
	if found {
		delete(s.entries, oldestKey)
		s.evictions++
	}
}
