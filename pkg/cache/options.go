package cache

import "time"

// Option is a functional option for building a Store.
type Option[V any] func(*Store[V])

// WithDefaultTTL sets the TTL used by Set() and by SetWithTTL/Touch calls
// that pass a non-positive ttl. ttl <= 0 is not allowed as it would produce
// entries that are expired on insert.
func WithDefaultTTL[V any](ttl time.Duration) Option[V] {
	return func(s *Store[V]) {
		if ttl > 0 {
			s.defaultTTL = ttl
		} else {
			panic("default TTL must be > 0")
		}
	}
}

// WithCleanupInterval configures how often the cleanup daemon sweeps expired
// entries.
func WithCleanupInterval[V any](interval time.Duration) Option[V] {
	return func(s *Store[V]) {
		if interval > 0 {
			s.cleanupInterval = interval
		} else {
			panic("cleanup interval must be > 0")
		}
	}
}

// WithCleanupStart configures whether the cleanup daemon starts on store
// creation. With the daemon disabled the store relies solely on lazy expiry.
func WithCleanupStart[V any](start bool) Option[V] {
	return func(s *Store[V]) {
		s.cleanupRunning = start
	}
}
