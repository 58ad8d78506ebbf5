package cache

import "time"

// Counters tracks cache effectiveness. Reset only by Clear.
type Counters struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
}

// Stats is a point-in-time snapshot of cache state and counters.
type Stats struct {
	Items         int       `json:"items"`
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	Sets          int64     `json:"sets"`
	Evictions     int64     `json:"evictions"`
	HitRate       float64   `json:"hit_rate"`
	MemoryBytes   int64     `json:"memory_bytes"`
	OldestCreated time.Time `json:"oldest_created"`
	NewestCreated time.Time `json:"newest_created"`
}

// Stats returns a snapshot of the store. Items counts entries currently
// held without filtering by expiry; MemoryBytes is the running heuristic
// total maintained on Set/Delete. Oldest/NewestCreated are zero when the
// store is empty.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Items:       len(s.items),
		Hits:        s.counters.Hits,
		Misses:      s.counters.Misses,
		Sets:        s.counters.Sets,
		Evictions:   s.counters.Evictions,
		MemoryBytes: s.memBytes,
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	for _, element := range s.items {
		ent := element.Value.(*entry[V])
		if stats.OldestCreated.IsZero() || ent.createdAt.Before(stats.OldestCreated) {
			stats.OldestCreated = ent.createdAt
		}
		if ent.createdAt.After(stats.NewestCreated) {
			stats.NewestCreated = ent.createdAt
		}
	}
	return stats
}
