package engine

import (
	"sync"
	"time"
)

// manifestCache memoizes computed manifests per (stream, window).
// Purely an optimization: entries are safe to evict at any moment, the
// next request just recomputes.
type manifestCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	streamID    uint
	windowStart int64
}

type cacheEntry struct {
	manifest  *Manifest
	expiresAt time.Time
}

func newManifestCache() *manifestCache {
	return &manifestCache{entries: make(map[cacheKey]cacheEntry)}
}

func (c *manifestCache) get(streamID uint, windowStart time.Time, now time.Time) (*Manifest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{streamID: streamID, windowStart: windowStart.Unix()}
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.manifest, true
}

func (c *manifestCache) put(streamID uint, windowStart time.Time, m *Manifest, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop expired windows while we hold the lock; keeps the map from
	// accumulating one entry per stream per hour forever.
	nowUnix := windowStart.Unix()
	for k, e := range c.entries {
		if e.expiresAt.Unix() < nowUnix {
			delete(c.entries, k)
		}
	}

	c.entries[cacheKey{streamID: streamID, windowStart: windowStart.Unix()}] = cacheEntry{
		manifest:  m,
		expiresAt: windowStart.Add(ttl),
	}
}

// invalidate drops every cached window for a stream. Called after
// schedule or playlist writes so admins see their change on the next
// poll instead of after TTL expiry.
func (c *manifestCache) invalidate(streamID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.streamID == streamID {
			delete(c.entries, k)
		}
	}
}
