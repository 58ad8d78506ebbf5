package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, capacity int, opts ...Option[int]) *Store[int] {
	t.Helper()
	opts = append(opts, WithCleanupStart[int](false))
	store, err := New[int](capacity, opts...)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New[int](0)
	assert.Error(t, err)

	_, err = New[int](-5)
	assert.Error(t, err)
}

func TestStore_GetSetDelete(t *testing.T) {
	store := newTestStore(t, 10)

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Set("a", 1)
	value, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, value)

	assert.True(t, store.Delete("a"))
	assert.False(t, store.Delete("a"))

	_, ok = store.Get("a")
	assert.False(t, ok)
}

func TestStore_TTLExpiry(t *testing.T) {
	store := newTestStore(t, 10)

	store.SetWithTTL("a", 1, 40*time.Millisecond)

	value, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, value)

	time.Sleep(60 * time.Millisecond)

	_, ok = store.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "expired entry is deleted on first access")
}

func TestStore_HasDoesNotTouchCounters(t *testing.T) {
	store := newTestStore(t, 10)

	store.SetWithTTL("a", 1, 40*time.Millisecond)
	assert.True(t, store.Has("a"))
	assert.False(t, store.Has("missing"))

	stats := store.Stats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)

	time.Sleep(60 * time.Millisecond)
	assert.False(t, store.Has("a"))
	assert.Equal(t, 0, store.Len(), "Has removes the expired entry")
}

func TestStore_LRUEviction(t *testing.T) {
	store := newTestStore(t, 2)

	store.Set("a", 1)
	store.Set("b", 2)
	store.Set("c", 3) // evicts "a", the least recently accessed

	_, ok := store.Get("a")
	assert.False(t, ok)
	b, ok := store.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, b)
	c, ok := store.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, c)

	stats := store.Stats()
	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestStore_LRUEvictionAfterAccessRefresh(t *testing.T) {
	store := newTestStore(t, 2)

	store.Set("a", 1)
	store.Set("b", 2)

	// Accessing "a" makes "b" the eviction candidate.
	_, ok := store.Get("a")
	require.True(t, ok)

	store.Set("c", 3)

	_, ok = store.Get("b")
	assert.False(t, ok)
	_, ok = store.Get("a")
	assert.True(t, ok)
	_, ok = store.Get("c")
	assert.True(t, ok)
}

func TestStore_OverwriteDoesNotEvict(t *testing.T) {
	store := newTestStore(t, 2)

	store.Set("a", 1)
	store.Set("b", 2)
	store.Set("a", 10)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, int64(0), store.Stats().Evictions)

	value, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, value)
}

func TestStore_SizeNeverExceedsCapacity(t *testing.T) {
	store := newTestStore(t, 3)

	for i := 0; i < 10; i++ {
		store.Set(string(rune('a'+i)), i)
		assert.LessOrEqual(t, store.Len(), 3)
	}
	assert.Equal(t, int64(7), store.Stats().Evictions)
}

func TestStore_HitMissAccounting(t *testing.T) {
	store := newTestStore(t, 10)

	store.Set("a", 1)
	store.Get("a")
	store.Get("a")
	store.Get("missing")

	stats := store.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestStore_StatsEmpty(t *testing.T) {
	store := newTestStore(t, 10)

	stats := store.Stats()
	assert.Zero(t, stats.Items)
	assert.Zero(t, stats.HitRate)
	assert.True(t, stats.OldestCreated.IsZero())
	assert.True(t, stats.NewestCreated.IsZero())
}

func TestStore_ClearResetsCounters(t *testing.T) {
	store := newTestStore(t, 10)

	store.Set("a", 1)
	store.Get("a")
	store.Get("missing")
	store.Clear()

	stats := store.Stats()
	assert.Zero(t, stats.Items)
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.Zero(t, stats.Sets)
	assert.Zero(t, stats.MemoryBytes)
}

func TestStore_GetOrSet(t *testing.T) {
	store := newTestStore(t, 10)

	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	value, err := store.GetOrSet(context.Background(), "a", fetch, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, calls)

	// Second call hits the cache; the fetcher must not run again.
	value, err = store.GetOrSet(context.Background(), "a", fetch, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, calls)
}

func TestStore_GetOrSetFetchError(t *testing.T) {
	store := newTestStore(t, 10)

	fetchErr := errors.New("upstream unavailable")
	_, err := store.GetOrSet(context.Background(), "a", func(context.Context) (int, error) {
		return 0, fetchErr
	}, 0)
	assert.ErrorIs(t, err, fetchErr)

	// Failures are not cached.
	assert.False(t, store.Has("a"))
}

func TestStore_Touch(t *testing.T) {
	store := newTestStore(t, 10)

	store.SetWithTTL("a", 1, 40*time.Millisecond)
	assert.True(t, store.Touch("a", 500*time.Millisecond))
	assert.False(t, store.Touch("missing", 500*time.Millisecond))

	time.Sleep(60 * time.Millisecond)

	// Still alive: Touch extended the expiry past the original TTL.
	value, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, value)
}

func TestStore_TouchRefreshesRecency(t *testing.T) {
	store := newTestStore(t, 2)

	store.Set("a", 1)
	store.Set("b", 2)
	require.True(t, store.Touch("a", 0))

	store.Set("c", 3)

	_, ok := store.Get("b")
	assert.False(t, ok, "b was least recently accessed after touching a")
	_, ok = store.Get("a")
	assert.True(t, ok)
}

func TestStore_KeysPattern(t *testing.T) {
	store := newTestStore(t, 10)

	store.Set("tenant-1:vehicle:123", 1)
	store.Set("tenant-1:valuation:123", 2)
	store.Set("tenant-2:vehicle:456", 3)

	assert.Len(t, store.Keys(""), 3)
	assert.Len(t, store.Keys("*"), 3)
	assert.Equal(t, []string{"tenant-1:valuation:123", "tenant-1:vehicle:123"}, store.Keys("tenant-1:*"))
	assert.Equal(t, []string{"tenant-1:vehicle:123", "tenant-2:vehicle:456"}, store.Keys("*:vehicle:*"))
	assert.Empty(t, store.Keys("tenant-3:*"))
}

func TestStore_ExpiringWithin(t *testing.T) {
	store := newTestStore(t, 10)

	store.SetWithTTL("soon", 1, 50*time.Millisecond)
	store.SetWithTTL("later", 2, time.Hour)

	assert.Equal(t, []string{"soon"}, store.ExpiringWithin(time.Second))
	assert.Equal(t, []string{"later", "soon"}, store.ExpiringWithin(2*time.Hour))
	assert.Empty(t, store.ExpiringWithin(-time.Hour))
}

func TestStore_MostAccessed(t *testing.T) {
	store := newTestStore(t, 10)

	store.Set("a", 1)
	store.Set("b", 2)
	store.Set("c", 3)
	for i := 0; i < 3; i++ {
		store.Get("b")
	}
	store.Get("c")

	top := store.MostAccessed(2)
	require.Len(t, top, 2)
	assert.Equal(t, KeyAccess{Key: "b", AccessCount: 4}, top[0])
	assert.Equal(t, KeyAccess{Key: "c", AccessCount: 2}, top[1])
}

func TestStore_GetManySetMany(t *testing.T) {
	store := newTestStore(t, 10)

	store.SetMany([]Item[int]{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2, TTL: time.Hour},
	})

	results := store.GetMany([]string{"a", "missing", "b"})
	require.Len(t, results, 3)
	assert.Equal(t, Lookup[int]{Value: 1, OK: true}, results[0])
	assert.Equal(t, Lookup[int]{OK: false}, results[1])
	assert.Equal(t, Lookup[int]{Value: 2, OK: true}, results[2])

	stats := store.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	store := newTestStore(t, 10)

	store.Set("a", 1)
	store.Set("b", 2)
	store.Get("a")
	store.Get("missing")

	snap := store.Export()
	require.Len(t, snap.Entries, 2)

	restored := newTestStore(t, 10)
	restored.Import(snap)

	assert.Equal(t, 2, restored.Len())
	value, ok := restored.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, value)

	stats := restored.Stats()
	// Counters carry over from the snapshot, plus the Get above.
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
}

func TestStore_ImportDropsExpired(t *testing.T) {
	store := newTestStore(t, 10)

	store.SetWithTTL("dead", 1, 30*time.Millisecond)
	store.SetWithTTL("alive", 2, time.Hour)
	snap := store.Export()

	time.Sleep(50 * time.Millisecond)

	restored := newTestStore(t, 10)
	restored.Import(snap)

	assert.False(t, restored.Has("dead"))
	assert.True(t, restored.Has("alive"))
	assert.Equal(t, 1, restored.Len())
}

func TestStore_ImportPreservesLRUOrder(t *testing.T) {
	store := newTestStore(t, 10)

	store.Set("old", 1)
	time.Sleep(5 * time.Millisecond)
	store.Set("fresh", 2)
	time.Sleep(5 * time.Millisecond)
	store.Get("old") // now most recently accessed

	restored := newTestStore(t, 2)
	restored.Import(store.Export())

	// Filling the restored store evicts "fresh", the least recently accessed.
	restored.Set("new", 3)
	assert.False(t, restored.Has("fresh"))
	assert.True(t, restored.Has("old"))
	assert.True(t, restored.Has("new"))
}

func TestStore_MemoryBytesTracksEntries(t *testing.T) {
	store := newTestStore(t, 10)

	assert.Zero(t, store.Stats().MemoryBytes)

	store.Set("a", 1)
	after := store.Stats().MemoryBytes
	assert.Positive(t, after)

	store.Delete("a")
	assert.Zero(t, store.Stats().MemoryBytes)
}

func TestStore_CleanupDaemonSweepsExpired(t *testing.T) {
	store, err := New[int](10,
		WithDefaultTTL[int](20*time.Millisecond),
		WithCleanupInterval[int](10*time.Millisecond),
	)
	require.NoError(t, err)
	defer store.Close()

	store.Set("a", 1)
	store.Set("b", 2)

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond, "daemon removes expired entries without any access")
}
