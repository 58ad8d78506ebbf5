package cache

import (
	"sort"
	"time"
)

// SnapshotEntry is one exported cache entry with its metadata.
type SnapshotEntry[V any] struct {
	Key          string    `json:"key"`
	Data         V         `json:"data"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	AccessCount  int64     `json:"access_count"`
}

// Snapshot is a full serializable dump of a store's entries and counters.
type Snapshot[V any] struct {
	Entries  []SnapshotEntry[V] `json:"entries"`
	Counters Counters           `json:"counters"`
}

// Export returns a snapshot of every entry (including not-yet-swept expired
// ones) and the current counters.
func (s *Store[V]) Export() Snapshot[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot[V]{
		Entries:  make([]SnapshotEntry[V], 0, len(s.items)),
		Counters: s.counters,
	}
	for element := s.ll.Front(); element != nil; element = element.Next() {
		ent := element.Value.(*entry[V])
		snap.Entries = append(snap.Entries, SnapshotEntry[V]{
			Key:          ent.key,
			Data:         ent.data,
			ExpiresAt:    ent.expiresAt,
			CreatedAt:    ent.createdAt,
			LastAccessed: ent.lastAccessed,
			AccessCount:  ent.accessCount,
		})
	}
	return snap
}

// Import replaces the store's content with the snapshot, dropping entries
// whose expiry has already passed. Counters are restored from the snapshot
// and LRU order is rebuilt from the entries' last-access times. If the
// survivors exceed the store's capacity the least recently accessed ones are
// evicted.
func (s *Store[V]) Import(snap Snapshot[V]) {
	now := time.Now()
	survivors := make([]SnapshotEntry[V], 0, len(snap.Entries))
	for _, se := range snap.Entries {
		if now.After(se.ExpiresAt) {
			continue
		}
		survivors = append(survivors, se)
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].LastAccessed.Before(survivors[j].LastAccessed)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.counters = snap.Counters

	// Ascending by last access, so each push lands in front of its elders.
	for _, se := range survivors {
		if len(s.items) >= s.capacity {
			s.evictOldest()
		}
		ent := &entry[V]{
			key:          se.Key,
			data:         se.Data,
			expiresAt:    se.ExpiresAt,
			createdAt:    se.CreatedAt,
			lastAccessed: se.LastAccessed,
			accessCount:  se.AccessCount,
			size:         entrySize(se.Key, se.Data),
		}
		s.items[se.Key] = s.ll.PushFront(ent)
		s.memBytes += ent.size
	}
}
