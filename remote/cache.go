package remote

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
)

// Statistics tracks document-cache activity. All counters are atomic and
// always enabled.
type Statistics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
	size      atomic.Int64
}

// Hits returns the number of cache hits.
func (s *Statistics) Hits() int64 { return s.hits.Load() }

// Misses returns the number of cache misses.
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Sets returns the number of stores.
func (s *Statistics) Sets() int64 { return s.sets.Load() }

// Evictions returns the number of evicted entries.
func (s *Statistics) Evictions() int64 { return s.evictions.Load() }

// Size returns the current entry count.
func (s *Statistics) Size() int64 { return s.size.Load() }

// LRUCacheOption configures an LRUCache.
type LRUCacheOption func(*lruOptions)

type lruOptions struct {
	metrics    *cacheMetrics
	metricsErr error
}

// lruEntry is one cache entry.
type lruEntry struct {
	url string
	doc *Document
}

// LRUCache is a thread-safe least-recently-used document cache keyed by
// canonical URL.
type LRUCache struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	order   *list.List
	stats   *Statistics
	metrics *cacheMetrics
}

// NewLRUCache creates an LRU document cache holding at most maxSize entries.
// Returns an error when maxSize is not positive or metrics registration fails.
func NewLRUCache(maxSize int, opts ...LRUCacheOption) (*LRUCache, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxSize)
	}

	var o lruOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.metricsErr != nil {
		return nil, o.metricsErr
	}

	return &LRUCache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		stats:   &Statistics{},
		metrics: o.metrics,
	}, nil
}

// Get retrieves a document by URL and marks it as recently used.
func (c *LRUCache) Get(url string) (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[url]
	if !exists {
		c.stats.misses.Add(1)
		if c.metrics != nil {
			c.metrics.misses.Inc()
		}
		return nil, false
	}

	c.order.MoveToFront(element)
	c.stats.hits.Add(1)
	if c.metrics != nil {
		c.metrics.hits.Inc()
	}
	return element.Value.(*lruEntry).doc, true
}

// Set stores a document, evicting the least recently used entry when the
// cache is full.
func (c *LRUCache) Set(url string, doc *Document) error {
	if url == "" {
		return fmt.Errorf("empty cache key")
	}
	if doc == nil {
		return fmt.Errorf("nil document for %s", url)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.items[url]; exists {
		element.Value.(*lruEntry).doc = doc
		c.order.MoveToFront(element)
	} else {
		c.items[url] = c.order.PushFront(&lruEntry{url: url, doc: doc})
		if len(c.items) > c.maxSize {
			c.evictOldest()
		}
	}

	c.stats.sets.Add(1)
	c.stats.size.Store(int64(len(c.items)))
	if c.metrics != nil {
		c.metrics.sets.Inc()
		c.metrics.size.Set(float64(len(c.items)))
	}
	return nil
}

// Len returns the current number of cached documents.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// URLs returns cached URLs, most recently used first.
func (c *LRUCache) URLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	urls := make([]string, 0, len(c.items))
	for element := c.order.Front(); element != nil; element = element.Next() {
		urls = append(urls, element.Value.(*lruEntry).url)
	}
	return urls
}

// Stats returns the cache statistics.
func (c *LRUCache) Stats() *Statistics { return c.stats }

// Clear removes all cached documents.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.stats.size.Store(0)
	if c.metrics != nil {
		c.metrics.size.Set(0)
	}
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *LRUCache) evictOldest() {
	element := c.order.Back()
	if element == nil {
		return
	}
	entry := element.Value.(*lruEntry)
	delete(c.items, entry.url)
	c.order.Remove(element)

	c.stats.evictions.Add(1)
	if c.metrics != nil {
		c.metrics.evictions.Inc()
	}
}

var _ DocumentCache = (*LRUCache)(nil)
