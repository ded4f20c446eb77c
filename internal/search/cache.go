package search

import (
	"slices"
	"strconv"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

type cacheKey struct {
	query string
	n     int
}

type cacheEntry struct {
	generation uint64
	results    []Result
}

// ResultCache memoizes ranked result lists by (query, count). Each entry
// remembers the corpus generation it was computed against and is only
// served to callers asking for that same generation; an older entry is
// evicted on sight.
type ResultCache struct {
	entries  *lru.Cache[cacheKey, cacheEntry]
	group    singleflight.Group
	capacity int

	hits   atomic.Int64
	misses atomic.Int64
	stale  atomic.Int64
}

// NewResultCache creates a cache holding at most size entries.
func NewResultCache(size int) *ResultCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, _ := lru.New[cacheKey, cacheEntry](size)
	return &ResultCache{entries: entries, capacity: size}
}

// GetOrCompute returns the cached results for (query, n) at generation,
// or runs compute, stores its output and returns it. Concurrent misses for
// the same key and generation share one compute call. Errors are returned
// uncached. The bool reports a cache hit. Callers own the returned slice.
func (c *ResultCache) GetOrCompute(query string, n int, generation uint64, compute func() ([]Result, error)) ([]Result, bool, error) {
	key := cacheKey{query: query, n: n}

	if entry, ok := c.entries.Get(key); ok {
		if entry.generation == generation {
			c.hits.Add(1)
			return slices.Clone(entry.results), true, nil
		}
		if entry.generation < generation {
			c.stale.Add(1)
			c.entries.Remove(key)
		}
	}
	c.misses.Add(1)

	flightKey := strconv.FormatUint(generation, 10) + "\x00" + strconv.Itoa(n) + "\x00" + query
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		results, err := compute()
		if err != nil {
			return nil, err
		}
		if results == nil {
			results = []Result{}
		}
		// Never overwrite an entry from a newer generation.
		if cur, ok := c.entries.Peek(key); !ok || cur.generation <= generation {
			c.entries.Add(key, cacheEntry{generation: generation, results: results})
		}
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return slices.Clone(v.([]Result)), false, nil
}

// Purge drops every entry.
func (c *ResultCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Stats returns the cache counters.
func (c *ResultCache) Stats() CacheStats {
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Stale:    c.stale.Load(),
		Entries:  c.entries.Len(),
		Capacity: c.capacity,
	}
}
