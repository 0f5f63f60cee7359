package lrucache

import (
	"sync"
)

// Entry is a key/value pair held by the cache. Put returns the evicted
// entry so the caller can persist it before the cache forgets it.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
	prev  *cacheEntry[K, V]
	next  *cacheEntry[K, V]
}

type Cache[K comparable, V any] struct {
	entries map[K]*cacheEntry[K, V]
	head    *cacheEntry[K, V]
	tail    *cacheEntry[K, V]
	maxSize int
	mu      sync.Mutex
}

// New creates a cache holding at most maxSize entries. Capacity is fixed,
// the cache is never resized.
func New[K comparable, V any](maxSize int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*cacheEntry[K, V], maxSize),
		maxSize: maxSize,
	}
}

// Get returns the cached value and marks the key as most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.moveToFront(entry)

	return entry.value, true
}

// Put inserts or overwrites the value for key and marks it as most
// recently used. If the cache then exceeds its capacity, the least
// recently used entry is removed and returned.
func (c *Cache[K, V]) Put(key K, value V) (Entry[K, V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.value = value
		c.moveToFront(entry)
		return Entry[K, V]{}, false
	}

	entry := &cacheEntry[K, V]{
		key:   key,
		value: value,
	}

	c.entries[key] = entry
	c.addToFront(entry)

	if len(c.entries) > c.maxSize {
		return c.evictLRU()
	}

	return Entry[K, V]{}, false
}

// Touch marks an existing key as most recently used without altering its
// value. Returns false if the key is not cached, the caller is expected
// to fall back to Put.
func (c *Cache[K, V]) Touch(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}

	c.moveToFront(entry)

	return true
}

// Items returns all cached entries in arbitrary order.
func (c *Cache[K, V]) Items() []Entry[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Entry[K, V], 0, len(c.entries))
	for _, entry := range c.entries {
		items = append(items, Entry[K, V]{Key: entry.key, Value: entry.value})
	}

	return items
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache[K, V]) moveToFront(entry *cacheEntry[K, V]) {
	if entry == c.head {
		return
	}

	// Remove from current position
	if entry.prev != nil {
		entry.prev.next = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	}
	if entry == c.tail {
		c.tail = entry.prev
	}

	// Add to front
	c.addToFront(entry)
}

func (c *Cache[K, V]) addToFront(entry *cacheEntry[K, V]) {
	entry.next = c.head
	entry.prev = nil

	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *Cache[K, V]) evictLRU() (Entry[K, V], bool) {
	if c.tail == nil {
		return Entry[K, V]{}, false
	}

	oldTail := c.tail
	c.tail = oldTail.prev

	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}

	delete(c.entries, oldTail.key)

	return Entry[K, V]{Key: oldTail.key, Value: oldTail.value}, true
}
