package cache

import (
	"context"
	"sync"
	"time"

	"github.com/captech/portal/internal/application/dashboard"
)

// InMemorySnapshotCache is a process-local snapshot cache for single
// instance deployments and tests. Expiry is checked lazily on read.
type InMemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	now     func() time.Time
}

type inMemoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewInMemorySnapshotCache creates an empty cache
func NewInMemorySnapshotCache() *InMemorySnapshotCache {
	return &InMemorySnapshotCache{
		entries: make(map[string]inMemoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value and whether a live entry was present
func (c *InMemorySnapshotCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a copy of the value with a TTL
func (c *InMemorySnapshotCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	buf := make([]byte, len(value))
	copy(buf, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = inMemoryEntry{value: buf, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (c *InMemorySnapshotCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

var _ dashboard.SnapshotCache = (*InMemorySnapshotCache)(nil)
