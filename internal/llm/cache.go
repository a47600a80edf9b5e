package llm

import (
	"sync"
	"time"

	"github.com/adesina-io/kudiflow/internal/model"
)

// cacheEntry represents a cached classification result.
type cacheEntry struct {
	expiry time.Time
	result model.ClassificationResult
}

// classificationCache provides thread-safe caching for LLM classifications,
// keyed by scope and normalized description.
type classificationCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// newClassificationCache creates a new cache with the specified TTL.
func newClassificationCache(ttl time.Duration) *classificationCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	return &classificationCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// get retrieves a result from the cache if it exists and hasn't expired.
func (c *classificationCache) get(key string) (model.ClassificationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return model.ClassificationResult{}, false
	}

	return entry.result, true
}

// set stores a result in the cache, evicting expired entries opportunistically.
func (c *classificationCache) set(key string, result model.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{
		result: result,
		expiry: now.Add(c.ttl),
	}
}
