package cache

import "time"

// entry stored in list.Element. The list front holds the most recently
// accessed entry, so the back is always the LRU eviction candidate.
type entry[V any] struct {
	key          string
	data         V
	expiresAt    time.Time
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  int64
	size         int64
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}
