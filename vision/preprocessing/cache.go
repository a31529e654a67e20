package preprocessing

import (
	"container/list"
	"fmt"
	"sync"
)

// HeaderCache is an LRU cache of decoded headers keyed by image path
type HeaderCache struct {
	mu      sync.Mutex
	headers map[string]*list.Element
	lru     *list.List
	maxSize int

	// Statistics
	hits   int64
	misses int64
}

type cacheEntry struct {
	path   string
	header *ImageHeader
}

// NewHeaderCache creates a cache holding at most maxSize headers
func NewHeaderCache(maxSize int) *HeaderCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &HeaderCache{
		headers: make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get retrieves a header from the cache
func (c *HeaderCache) Get(path string) (*ImageHeader, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.headers[path]; ok {
		c.lru.MoveToFront(elem)
		c.hits++
		return elem.Value.(*cacheEntry).header, true
	}

	c.misses++
	return nil, false
}

// Put adds a header to the cache, evicting the least recently used one when full
func (c *HeaderCache) Put(path string, header *ImageHeader) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.headers[path]; ok {
		elem.Value.(*cacheEntry).header = header
		c.lru.MoveToFront(elem)
		return
	}

	c.headers[path] = c.lru.PushFront(&cacheEntry{path: path, header: header})

	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.headers, oldest.Value.(*cacheEntry).path)
	}
}

// Stats returns cache statistics
func (c *HeaderCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}
	return CacheStats{
		Size:    c.lru.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// Clear drops every cached header. Statistics are kept.
func (c *HeaderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.headers = make(map[string]*list.Element)
	c.lru = list.New()
}

// CacheStats holds cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int64
	Misses  int64
	HitRate float64
}

// String returns a string representation of cache stats
func (cs CacheStats) String() string {
	return fmt.Sprintf("Cache: %d/%d headers, Hits: %d, Misses: %d, Hit Rate: %.1f%%",
		cs.Size, cs.MaxSize, cs.Hits, cs.Misses, cs.HitRate)
}
