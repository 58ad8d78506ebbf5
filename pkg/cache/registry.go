package cache

import (
	"fmt"
	"sort"
	"time"
)

// CategoryConfig describes one named cache category.
type CategoryConfig struct {
	Name            string
	Capacity        int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// Registry holds one independently configured Store per data category
// (vehicle data, valuations, tenant settings, ...). It replaces module-level
// singleton caches: the composition root builds one Registry from config and
// hands it to whichever components need it.
type Registry struct {
	stores map[string]*Store[any]
	names  []string
}

// NewRegistry builds a store per category. Category names must be unique.
func NewRegistry(categories []CategoryConfig) (*Registry, error) {
	r := &Registry{stores: make(map[string]*Store[any], len(categories))}
	for _, c := range categories {
		if _, exists := r.stores[c.Name]; exists {
			r.Close()
			return nil, fmt.Errorf("duplicate cache category %q", c.Name)
		}
		opts := make([]Option[any], 0, 2)
		if c.DefaultTTL > 0 {
			opts = append(opts, WithDefaultTTL[any](c.DefaultTTL))
		}
		if c.CleanupInterval > 0 {
			opts = append(opts, WithCleanupInterval[any](c.CleanupInterval))
		}
		store, err := New[any](c.Capacity, opts...)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("cache category %q: %w", c.Name, err)
		}
		r.stores[c.Name] = store
		r.names = append(r.names, c.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the store for a category name.
func (r *Registry) Get(name string) (*Store[any], bool) {
	store, ok := r.stores[name]
	return store, ok
}

// Names returns the category names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Stats returns a per-category stats snapshot.
func (r *Registry) Stats() map[string]Stats {
	stats := make(map[string]Stats, len(r.stores))
	for name, store := range r.stores {
		stats[name] = store.Stats()
	}
	return stats
}

// Close closes every store in the registry.
func (r *Registry) Close() {
	for _, store := range r.stores {
		store.Close()
	}
}
