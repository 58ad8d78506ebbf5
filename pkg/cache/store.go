package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	defaultTTL             = 10 * time.Minute
	defaultCleanupInterval = 5 * time.Minute

	// entryOverhead approximates the per-entry bookkeeping bytes kept on top
	// of the key and the serialized value.
	entryOverhead = 64
)

// Store is a bounded in-memory key/value cache with per-entry TTL and
// least-recently-used eviction.
//
// Expired entries are removed lazily the moment Get/Has touches them, and
// proactively by a background cleanup daemon. An entry past its expiry is
// never returned.
//
// All methods are safe for concurrent use. GetOrSet invokes its fetch
// callback outside the store lock and does NOT deduplicate concurrent
// fetches for the same key: two goroutines racing on a cold key will both
// fetch and both store, last writer wins.
type Store[V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	defaultTTL      time.Duration
	cleanupInterval time.Duration

	counters Counters
	memBytes int64

	cleanupStop    chan struct{}
	cleanupRunning bool
}

// New creates a Store holding at most capacity entries. Capacity must be > 0.
// Provide options to configure the default TTL and the cleanup daemon.
func New[V any](capacity int, opts ...Option[V]) (*Store[V], error) {
	if capacity <= 0 {
		return nil, errors.New("capacity must be > 0")
	}

	s := &Store[V]{
		capacity:        capacity,
		ll:              list.New(),
		items:           make(map[string]*list.Element, capacity),
		defaultTTL:      defaultTTL,
		cleanupInterval: defaultCleanupInterval,
		cleanupStop:     make(chan struct{}),
		cleanupRunning:  true,
	}

	for _, o := range opts {
		o(s)
	}

	if s.cleanupRunning {
		s.startCleanupDaemon()
	}
	return s, nil
}

// Get returns the value for key if present and not expired, and marks the
// entry as most recently used. Get is the only operation that moves the
// hit/miss counters.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	element, ok := s.items[key]
	if !ok {
		s.counters.Misses++
		return zero, false
	}
	ent := element.Value.(*entry[V])
	now := time.Now()
	if ent.expired(now) {
		s.removeElement(element)
		s.counters.Misses++
		return zero, false
	}
	ent.accessCount++
	ent.lastAccessed = now
	s.ll.MoveToFront(element)
	s.counters.Hits++
	return ent.data, true
}

// Set stores value for key using the store's default TTL.
func (s *Store[V]) Set(key string, value V) {
	s.SetWithTTL(key, value, s.defaultTTL)
}

// SetWithTTL stores value for key with a custom ttl. ttl <= 0 falls back to
// the default TTL. Overwriting an existing key resets its access metadata and
// never triggers an eviction; inserting a new key into a full store evicts
// the least recently used entry first.
func (s *Store[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now()
	size := entrySize(key, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	if element, ok := s.items[key]; ok {
		ent := element.Value.(*entry[V])
		s.memBytes += size - ent.size
		ent.data = value
		ent.expiresAt = now.Add(ttl)
		ent.createdAt = now
		ent.lastAccessed = now
		ent.accessCount = 1
		ent.size = size
		s.ll.MoveToFront(element)
		s.counters.Sets++
		return
	}

	if len(s.items) >= s.capacity {
		s.evictOldest()
	}

	ent := &entry[V]{
		key:          key,
		data:         value,
		expiresAt:    now.Add(ttl),
		createdAt:    now,
		lastAccessed: now,
		accessCount:  1,
		size:         size,
	}
	s.items[key] = s.ll.PushFront(ent)
	s.memBytes += size
	s.counters.Sets++
}

// Has reports whether key is present and not expired. Unlike Get it does not
// touch the hit/miss counters or the access metadata, but it does remove the
// entry if it finds it expired.
func (s *Store[V]) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	element, ok := s.items[key]
	if !ok {
		return false
	}
	if element.Value.(*entry[V]).expired(time.Now()) {
		s.removeElement(element)
		return false
	}
	return true
}

// Delete removes key from the store and reports whether an entry was removed.
func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	element, ok := s.items[key]
	if !ok {
		return false
	}
	s.removeElement(element)
	return true
}

// Clear empties the store and resets all counters.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// GetOrSet returns the cached value for key if present, otherwise invokes
// fetch, stores its result with ttl (<= 0 means default TTL) and returns it.
// A fetch error propagates unmodified and nothing is cached.
//
// Concurrent calls racing on the same cold key each invoke fetch; there is no
// single-flight deduplication.
func (s *Store[V]) GetOrSet(ctx context.Context, key string, fetch func(context.Context) (V, error), ttl time.Duration) (V, error) {
	if value, ok := s.Get(key); ok {
		return value, nil
	}
	value, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	s.SetWithTTL(key, value, ttl)
	return value, nil
}

// Touch resets the expiry (ttl <= 0 means default TTL) and the last-access
// time of an existing key. Returns false if the key is absent. Counters are
// not affected.
func (s *Store[V]) Touch(key string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	element, ok := s.items[key]
	if !ok {
		return false
	}
	ent := element.Value.(*entry[V])
	now := time.Now()
	ent.expiresAt = now.Add(ttl)
	ent.lastAccessed = now
	s.ll.MoveToFront(element)
	return true
}

// Len returns the number of entries currently held, without filtering by
// expiry.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close stops the cleanup daemon and empties the store. The store must not
// be used after Close.
func (s *Store[V]) Close() {
	s.stopCleanupDaemon()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// evictOldest removes the back of the list, the entry with the smallest
// last-access time. Caller must hold the lock.
func (s *Store[V]) evictOldest() {
	tail := s.ll.Back()
	if tail == nil {
		return
	}
	s.removeElement(tail)
	s.counters.Evictions++
}

// removeElement drops an element from both the list and the map. Caller must
// hold the lock.
func (s *Store[V]) removeElement(element *list.Element) {
	ent := element.Value.(*entry[V])
	s.ll.Remove(element)
	delete(s.items, ent.key)
	s.memBytes -= ent.size
}

// reset empties the map and list and zeroes all counters. Caller must hold
// the lock.
func (s *Store[V]) reset() {
	s.ll = list.New()
	s.items = make(map[string]*list.Element, s.capacity)
	s.counters = Counters{}
	s.memBytes = 0
}

// startCleanupDaemon launches a goroutine that periodically sweeps expired
// entries, bounding growth from keys that are set once and never read again.
func (s *Store[V]) startCleanupDaemon() {
	go func() {
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.removeExpired()
			case <-s.cleanupStop:
				return
			}
		}
	}()
}

func (s *Store[V]) stopCleanupDaemon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleanupRunning {
		close(s.cleanupStop)
		s.cleanupRunning = false
	}
}

// removeExpired walks the list and drops every currently-expired entry.
func (s *Store[V]) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	current := s.ll.Front()
	for current != nil {
		next := current.Next()
		if current.Value.(*entry[V]).expired(now) {
			s.removeElement(current)
		}
		current = next
	}
}

// entrySize estimates the memory footprint of one entry: two bytes per key
// character plus the JSON-serialized value length plus a fixed overhead.
// This is a diagnostic heuristic, not an accounting guarantee; values that
// cannot be marshaled count as size zero.
func entrySize[V any](key string, value V) int64 {
	size := int64(2*len(key)) + entryOverhead
	if raw, err := json.Marshal(value); err == nil {
		size += int64(len(raw))
	}
	return size
}
