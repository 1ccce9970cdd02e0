package engine

import (
	"container/list"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultIndexCacheSize is the number of indexes a predicate keeps by default.
const DefaultIndexCacheSize = 32

// indexCache is a bounded LRU of the indexes of one predicate, keyed by bitmask.
// An evicted index is rebuilt on its next use.
type indexCache struct {
	mu       sync.RWMutex
	entries  map[uint16]*list.Element
	lru      *list.List
	flight   singleflight.Group
	capacity int

	hits      int64
	misses    int64
	evictions int64
}

type indexCacheEntry struct {
	bitmask uint16
	index   *index
}

func newIndexCache(capacity int) *indexCache {
	if capacity <= 0 {
		capacity = DefaultIndexCacheSize
	}
	return &indexCache{
		entries:  map[uint16]*list.Element{},
		lru:      list.New(),
		capacity: capacity,
	}
}

// getOrBuild returns the index for bitmask, building it with build on a miss.
// Concurrent misses for the same bitmask share one build.
func (c *indexCache) getOrBuild(bitmask uint16, build func() *index) *index {
	c.mu.RLock()
	e, ok := c.entries[bitmask]
	var idx *index
	if ok {
		idx = e.Value.(*indexCacheEntry).index
	}
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.lru.MoveToFront(e)
		c.mu.Unlock()
		atomic.AddInt64(&c.hits, 1)
		indexCacheLookups.WithLabelValues("hit").Inc()
		return idx
	}

	atomic.AddInt64(&c.misses, 1)
	indexCacheLookups.WithLabelValues("miss").Inc()
	v, _, _ := c.flight.Do(strconv.Itoa(int(bitmask)), func() (interface{}, error) {
		start := time.Now()
		idx := build()
		indexBuildDuration.Observe(time.Since(start).Seconds())
		c.put(bitmask, idx)
		return idx, nil
	})
	return v.(*index)
}

func (c *indexCache) put(bitmask uint16, idx *index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[bitmask]; ok {
		e.Value.(*indexCacheEntry).index = idx
		c.lru.MoveToFront(e)
		return
	}
	c.entries[bitmask] = c.lru.PushFront(&indexCacheEntry{bitmask: bitmask, index: idx})
	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*indexCacheEntry).bitmask)
		atomic.AddInt64(&c.evictions, 1)
		indexCacheEvictions.Inc()
	}
}

// IndexCacheStats is a snapshot of an index cache's counters.
type IndexCacheStats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
}

func (c *indexCache) stats() IndexCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return IndexCacheStats{
		Size:      c.lru.Len(),
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}
