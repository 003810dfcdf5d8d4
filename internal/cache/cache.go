// Package cache holds short-lived read results (branch lists, logs,
// status) keyed by workspace so repeated MCP calls against an unchanged
// repository skip the git layer. Any mutating operation invalidates the
// workspace's entries.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL bounds how stale a cached read may be.
const DefaultTTL = 30 * time.Second

type key struct {
	workspaceID string
	kind        string
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL map over per-workspace read results.
type Cache struct {
	mu      sync.Mutex
	entries map[key]entry
	ttl     time.Duration

	hits   int64
	misses int64
}

// New creates a cache; ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[key]entry),
		ttl:     ttl,
	}
}

// Get returns the cached value for (workspaceID, kind) if present and
// fresh.
func (c *Cache) Get(workspaceID, kind string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{workspaceID, kind}
	e, ok := c.entries[k]
	if !ok || time.Now().After(e.expiresAt) {
		if ok {
			delete(c.entries, k)
		}
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Put stores a value under (workspaceID, kind).
func (c *Cache) Put(workspaceID, kind string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{workspaceID, kind}] = entry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops every entry for a workspace.
func (c *Cache) Invalidate(workspaceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.workspaceID == workspaceID {
			delete(c.entries, k)
		}
	}
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]entry)
}

// Stats reports hit/miss counts and current entry count.
func (c *Cache) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.entries)
}
