// Package boundedcache provides a fixed-capacity key→value store with a TTL
// and insertion-order eviction. It bounds memory regardless of how many
// distinct keys are written over the process lifetime, and is safe for
// concurrent use. All operations are O(1).
package boundedcache

import (
	"container/list"
	"sync"
	"time"
)

type item struct {
	key       string
	value     any
	writtenAt time.Time
}

// Cache is a capacity-limited associative store. An entry older than the TTL
// is treated as absent on read. On write at capacity, the single
// oldest-inserted entry is evicted first; rewriting an existing key removes
// and reinserts it, refreshing its recency.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = oldest inserted
	entries  map[string]*list.Element
	now      func() time.Time
}

// New creates a cache holding at most capacity entries, each valid for ttl.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

// Get returns the value for key, or false when the key is absent or its
// entry has outlived the TTL. Expired entries are dropped on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	it := el.Value.(*item)
	if c.ttl > 0 && c.now().Sub(it.writtenAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	return it.value, true
}

// Set writes key→value, evicting the oldest-inserted entry if at capacity.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*item).key)
		}
	}
	c.entries[key] = c.order.PushBack(&item{key: key, value: value, writtenAt: c.now()})
}

// Len returns the number of stored entries, including not-yet-collected
// expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
