package perception

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentra/internal/engine"
)

func snap(id string) *engine.PerceptionSnapshot {
	return &engine.PerceptionSnapshot{ID: id}
}

func TestSnapshotCache_EvictsOldestFirst(t *testing.T) {
	cache := NewSnapshotCache(3)
	for i := 1; i <= 4; i++ {
		cache.Add(snap(fmt.Sprintf("snap-%d", i)))
	}

	assert.Equal(t, 3, cache.Len())
	_, ok := cache.ByID("snap-1")
	assert.False(t, ok, "oldest entry should be gone")

	history := cache.History()
	require.Len(t, history, 3)
	assert.Equal(t, "snap-2", history[0].ID)
	assert.Equal(t, "snap-4", history[2].ID)
}

func TestSnapshotCache_SameIDReplacesInPlace(t *testing.T) {
	cache := NewSnapshotCache(3)
	cache.Add(snap("a"))
	cache.Add(snap("b"))

	replacement := snap("a")
	replacement.Version = "v2"
	cache.Add(replacement)

	assert.Equal(t, 2, cache.Len())
	got, ok := cache.ByID("a")
	require.True(t, ok)
	assert.Equal(t, "v2", got.Version)

	// replacement keeps the original slot, latest is still b
	latest, ok := cache.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.ID)
}

func TestSnapshotCache_LatestAndEmpty(t *testing.T) {
	cache := NewSnapshotCache(2)

	_, ok := cache.Latest()
	assert.False(t, ok)
	assert.Empty(t, cache.History())

	cache.Add(snap("a"))
	cache.Add(snap("b"))
	latest, ok := cache.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.ID)
}

func TestSnapshotCache_DefaultCapacity(t *testing.T) {
	cache := NewSnapshotCache(0)
	for i := 0; i < 60; i++ {
		cache.Add(snap(fmt.Sprintf("snap-%d", i)))
	}
	assert.Equal(t, 50, cache.Len())

	history := cache.History()
	assert.Equal(t, "snap-10", history[0].ID)
	assert.Equal(t, "snap-59", history[len(history)-1].ID)
}

func TestSnapshotCache_IgnoresNil(t *testing.T) {
	cache := NewSnapshotCache(2)
	cache.Add(nil)
	assert.Equal(t, 0, cache.Len())
}
