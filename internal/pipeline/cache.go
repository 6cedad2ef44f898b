package pipeline

import (
	"context"
	"sync"

	"github.com/couchcryptid/synop-ingest/internal/observability"
)

// CachedResolver wraps a StationResolver with an in-memory LRU cache.
// Entries live until Reset; the pipeline resets it at the start of every
// reconcile phase so catalog changes apply from the next timestep on.
type CachedResolver struct {
	inner   StationResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner StationResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, identifier string) (Resolution, error) {
	if res, ok := c.cache.get(identifier); ok {
		c.metrics.ResolverCache.WithLabelValues("hit").Inc()
		return res, nil
	}
	c.metrics.ResolverCache.WithLabelValues("miss").Inc()

	res, err := c.inner.Resolve(ctx, identifier)
	if err != nil {
		return res, err
	}
	// Only cache resolved stations so a later catalog sync is picked up.
	if res.Resolved {
		c.cache.put(identifier, res)
	}
	return res, nil
}

// Reset drops every cached resolution.
func (c *CachedResolver) Reset() {
	c.cache.clear()
}

// lruCache is a simple thread-safe LRU cache for Resolutions.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value Resolution
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (Resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Resolution{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.head, c.tail = nil, nil
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
