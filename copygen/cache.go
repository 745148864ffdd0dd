package copygen

import (
	"container/list"
	"sync"
	"time"
)

// copyCache is a bounded LRU with per-entry TTL, owned by the generator
// instance. It replaces the usual "package-level map that grows forever"
// memoization: capacity bounds memory, TTL bounds staleness, and lifecycle
// is tied to the generator, not the process.
type copyCache struct {
	mu        sync.Mutex
	capacity  int
	ttl       time.Duration
	items     map[string]*list.Element
	evictList *list.List
	now       func() time.Time
}

type cacheEntry struct {
	key       string
	value     *EmailCopy
	expiresAt time.Time
}

func newCopyCache(capacity int, ttl time.Duration) *copyCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &copyCache{
		capacity:  capacity,
		ttl:       ttl,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		now:       time.Now,
	}
}

func (c *copyCache) get(key string) (*EmailCopy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := ent.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.evictList.Remove(ent)
		delete(c.items, key)
		return nil, false
	}
	c.evictList.MoveToFront(ent)
	return entry.value, true
}

func (c *copyCache) set(key string, value *EmailCopy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		entry := ent.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		return
	}

	ent := c.evictList.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = ent

	for len(c.items) > c.capacity {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *copyCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
