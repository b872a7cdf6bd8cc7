// Package liveness tracks when each session last had its activity persisted,
// so the request path can skip redundant database touches. The cache is
// process-local and advisory: losing it only means the next request writes a
// touch it could have skipped.
package liveness

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache records the last persisted touch time per session.
type Cache struct {
	// entries maps session identifiers to the last persisted touch time
	entries map[string]time.Time

	// interval is the minimum gap between persisted touches per session
	interval time.Duration

	// maxEntries is the high-water mark that triggers a purge
	maxEntries int

	// retention is how long an entry may sit untouched before a purge removes it
	retention time.Duration

	// mu protects concurrent access to the entries map
	mu sync.Mutex
}

// NewCache creates a cache enforcing the given minimum touch interval.
//
// Parameters:
//   - interval: Minimum gap between persisted touches for one session
//   - maxEntries: Entry count above which a purge pass runs
//   - retention: Age beyond which purged entries are dropped
//
// Returns:
//   - A configured liveness cache
func NewCache(interval time.Duration, maxEntries int, retention time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]time.Time),
		interval:   interval,
		maxEntries: maxEntries,
		retention:  retention,
	}
}

// ShouldTouch reports whether a persisted touch is due for the session and, if
// so, records now as the last touch time. The check and the record are one
// atomic step so concurrent requests for the same session elect exactly one
// writer per interval.
func (c *Cache) ShouldTouch(sessionID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, exists := c.entries[sessionID]
	if exists && now.Sub(last) < c.interval {
		return false
	}

	c.entries[sessionID] = now

	if len(c.entries) > c.maxEntries {
		c.purge(now)
	}

	return true
}

// Forget drops the entry for a session. Called when a session is terminated so
// a reused identifier starts fresh.
func (c *Cache) Forget(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}

// Len returns the number of tracked sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// purge removes entries older than the retention window. Caller must hold mu.
func (c *Cache) purge(now time.Time) {
	before := len(c.entries)
	for id, last := range c.entries {
		if now.Sub(last) > c.retention {
			delete(c.entries, id)
		}
	}

	log.Debug().
		Int("before", before).
		Int("after", len(c.entries)).
		Msg("Liveness cache purged")
}
