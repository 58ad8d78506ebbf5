package cache

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Item is one key/value pair for SetMany. TTL <= 0 means the default TTL.
type Item[V any] struct {
	Key   string
	Value V
	TTL   time.Duration
}

// Lookup is one GetMany result. OK is false for absent or expired keys.
type Lookup[V any] struct {
	Value V
	OK    bool
}

// GetMany performs a Get per key, in order. Each lookup updates the hit/miss
// counters exactly like a single Get.
func (s *Store[V]) GetMany(keys []string) []Lookup[V] {
	results := make([]Lookup[V], len(keys))
	for i, key := range keys {
		results[i].Value, results[i].OK = s.Get(key)
	}
	return results
}

// SetMany performs a SetWithTTL per item, in order.
func (s *Store[V]) SetMany(items []Item[V]) {
	for _, item := range items {
		s.SetWithTTL(item.Key, item.Value, item.TTL)
	}
}

// Keys returns the keys currently held, filtered by pattern. A "*" in the
// pattern matches any sequence of characters; an empty pattern matches
// everything. Expired entries that have not yet been swept may still appear
// since Keys does not filter by expiry.
func (s *Store[V]) Keys(pattern string) []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	sort.Strings(keys)
	if pattern == "" || pattern == "*" {
		return keys
	}

	re := compileWildcard(pattern)
	matched := keys[:0]
	for _, key := range keys {
		if re.MatchString(key) {
			matched = append(matched, key)
		}
	}
	return matched
}

// ExpiringWithin returns the keys whose expiry falls within d from now.
func (s *Store[V]) ExpiringWithin(d time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(d)
	keys := make([]string, 0)
	for key, element := range s.items {
		if ent := element.Value.(*entry[V]); !ent.expiresAt.After(deadline) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// KeyAccess pairs a key with its access count.
type KeyAccess struct {
	Key         string `json:"key"`
	AccessCount int64  `json:"access_count"`
}

// MostAccessed returns up to limit keys ordered by descending access count.
func (s *Store[V]) MostAccessed(limit int) []KeyAccess {
	s.mu.Lock()
	accessed := make([]KeyAccess, 0, len(s.items))
	for key, element := range s.items {
		accessed = append(accessed, KeyAccess{Key: key, AccessCount: element.Value.(*entry[V]).accessCount})
	}
	s.mu.Unlock()

	sort.Slice(accessed, func(i, j int) bool {
		if accessed[i].AccessCount != accessed[j].AccessCount {
			return accessed[i].AccessCount > accessed[j].AccessCount
		}
		return accessed[i].Key < accessed[j].Key
	})
	if limit > 0 && limit < len(accessed) {
		accessed = accessed[:limit]
	}
	return accessed
}

// compileWildcard turns a "*"-wildcard pattern into an anchored regexp.
func compileWildcard(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
