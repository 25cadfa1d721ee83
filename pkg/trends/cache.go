package trends

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// resultCache memoizes trend results for a bounded TTL. Trend queries are
// idempotent reads, so serving a slightly stale result is acceptable; the TTL
// bounds the staleness. A zero TTL disables the cache entirely.
type resultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result   *TrendResult
	loadedAt time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// cacheKey builds the memoization key. Fields are sorted so permutations of
// the same request share an entry.
func cacheKey(productID string, fields []string, days int) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)
	return productID + "|" + strings.Join(sorted, ",") + "|" + strconv.Itoa(days)
}

func (c *resultCache) get(key string) (*TrendResult, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Since(entry.loadedAt) > c.ttl {
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, result *TrendResult) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic sweep keeps the map from growing unbounded between
	// restarts; entry counts are small (one per distinct query shape).
	if len(c.entries) > 4096 {
		for k, e := range c.entries {
			if time.Since(e.loadedAt) > c.ttl {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{result: result, loadedAt: time.Now()}
}
