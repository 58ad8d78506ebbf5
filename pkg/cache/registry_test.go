package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCategories() []CategoryConfig {
	return []CategoryConfig{
		{Name: "vehicle", Capacity: 10, DefaultTTL: time.Hour},
		{Name: "valuation", Capacity: 5, DefaultTTL: 30 * time.Minute},
	}
}

func TestRegistry_BuildAndLookup(t *testing.T) {
	registry, err := NewRegistry(testCategories())
	require.NoError(t, err)
	defer registry.Close()

	assert.Equal(t, []string{"valuation", "vehicle"}, registry.Names())

	vehicle, ok := registry.Get("vehicle")
	require.True(t, ok)
	vehicle.Set("vin:123", "data")

	_, ok = registry.Get("unknown")
	assert.False(t, ok)
}

func TestRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry([]CategoryConfig{
		{Name: "vehicle", Capacity: 10},
		{Name: "vehicle", Capacity: 5},
	})
	assert.Error(t, err)
}

func TestRegistry_InvalidCapacity(t *testing.T) {
	_, err := NewRegistry([]CategoryConfig{{Name: "vehicle", Capacity: 0}})
	assert.Error(t, err)
}

func TestRegistry_Stats(t *testing.T) {
	registry, err := NewRegistry(testCategories())
	require.NoError(t, err)
	defer registry.Close()

	vehicle, _ := registry.Get("vehicle")
	vehicle.Set("vin:123", "data")
	vehicle.Get("vin:123")

	stats := registry.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats["vehicle"].Items)
	assert.Equal(t, int64(1), stats["vehicle"].Hits)
	assert.Zero(t, stats["valuation"].Items)
}
