package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/vndb-mcp/pkg/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSetAndGet(t *testing.T) {
	s := New[string](10, time.Hour, clock.NewFake(epoch))

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("k", "v")
	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGetExpiredEntryIsRemoved(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := New[string](10, time.Second, clk)

	s.Set("k", "v")
	clk.Advance(2 * time.Second)

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "expired entry should be deleted by the lookup")
	assert.Equal(t, int64(1), s.Stats().Expired)
}

func TestEntryAtExactTTLIsStillFresh(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := New[int](10, time.Second, clk)

	s.Set("k", 1)
	clk.Advance(time.Second)

	_, ok := s.Get("k")
	assert.True(t, ok)
}

func TestEvictsEarliestInsertedNotLeastRecentlyUsed(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := New[int](3, time.Hour, clk)

	for i := 0; i < 3; i++ {
		s.Set(fmt.Sprintf("k%d", i), i)
		clk.Advance(time.Second)
	}

	// Reading k0 must not protect it: eviction is by insertion time.
	_, ok := s.Get("k0")
	require.True(t, ok)

	s.Set("k3", 3)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, int64(1), s.Stats().Evictions)
	_, ok = s.Get("k0")
	assert.False(t, ok, "k0 was inserted first and should be evicted")
	for _, k := range []string{"k1", "k2", "k3"} {
		_, ok := s.Get(k)
		assert.True(t, ok, k)
	}
}

func TestEvictionTieBreaksOnInsertionOrder(t *testing.T) {
	s := New[int](2, time.Hour, clock.NewFake(epoch))

	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	_, ok := s.Get("a")
	assert.False(t, ok)
	_, ok = s.Get("b")
	assert.True(t, ok)
}

func TestOverwriteDoesNotEvictAndResetsStoredAt(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := New[int](2, 10*time.Second, clk)

	s.Set("a", 1)
	clk.Advance(time.Second)
	s.Set("b", 2)
	clk.Advance(time.Second)

	s.Set("a", 10)
	assert.Equal(t, int64(0), s.Stats().Evictions)

	// a is now newer than b, so b goes first.
	s.Set("c", 3)
	_, ok := s.Get("b")
	assert.False(t, ok)
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, got)

	// The overwrite also restarted a's TTL.
	clk.Advance(9 * time.Second)
	_, ok = s.Get("a")
	assert.True(t, ok)
}

func TestClearExpired(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := New[int](10, 5*time.Second, clk)

	s.Set("old1", 1)
	s.Set("old2", 2)
	clk.Advance(4 * time.Second)
	s.Set("fresh", 3)
	clk.Advance(2 * time.Second)

	assert.Equal(t, 2, s.ClearExpired())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.ClearExpired())
}

func TestDelete(t *testing.T) {
	s := New[int](10, time.Hour, nil)
	s.Set("k", 1)
	s.Delete("k")
	s.Delete("never-set")
	assert.Equal(t, 0, s.Len())
}

func TestConcurrentAccess(t *testing.T) {
	s := New[int](50, time.Hour, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (n*100+j)%80)
				s.Set(key, j)
				s.Get(key)
				if j%25 == 0 {
					s.ClearExpired()
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 50)
}
