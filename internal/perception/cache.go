package perception

import (
	"sync"

	"sentra/internal/engine"
)

const defaultCacheCapacity = 50

// SnapshotCache keeps the most recent snapshots in memory with a hard
// capacity. When full, the oldest entry is evicted first. A snapshot with
// an ID already present replaces that entry in place instead of growing the
// history.
type SnapshotCache struct {
	mu       sync.RWMutex
	capacity int
	entries  []*engine.PerceptionSnapshot
}

// NewSnapshotCache builds a cache holding at most capacity snapshots.
// Non-positive capacities fall back to the default of 50.
func NewSnapshotCache(capacity int) *SnapshotCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &SnapshotCache{capacity: capacity}
}

func (c *SnapshotCache) Add(snap *engine.PerceptionSnapshot) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.entries {
		if existing.ID == snap.ID {
			c.entries[i] = snap
			return
		}
	}
	if len(c.entries) >= c.capacity {
		c.entries = c.entries[1:]
	}
	c.entries = append(c.entries, snap)
}

func (c *SnapshotCache) Latest() (*engine.PerceptionSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return nil, false
	}
	return c.entries[len(c.entries)-1], true
}

func (c *SnapshotCache) ByID(id string) (*engine.PerceptionSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, snap := range c.entries {
		if snap.ID == id {
			return snap, true
		}
	}
	return nil, false
}

// History returns the cached snapshots oldest first.
func (c *SnapshotCache) History() []*engine.PerceptionSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*engine.PerceptionSnapshot, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
