// Package cache provides a small generic LRU used to bound the number
// of textures resident in the compositor. The cache is not safe for
// concurrent use; the renderer drives it from a single goroutine.
package cache

// node is an entry in the doubly-linked recency list. The key is kept
// on the node for O(1) removal from the map on eviction.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// LRU is a fixed-capacity cache with least-recently-used eviction.
// The head of the internal list is the most recently used entry.
type LRU[K comparable, V any] struct {
	capacity int
	entries  map[K]*node[K, V]
	head     *node[K, V]
	tail     *node[K, V]
	onEvict  func(K, V)
}

// New creates an LRU holding at most capacity entries. A capacity of
// zero or less means unbounded.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	return &LRU[K, V]{
		capacity: capacity,
		entries:  make(map[K]*node[K, V]),
	}
}

// OnEvict registers a callback invoked with each entry removed by
// capacity eviction or Clear.
func (c *LRU[K, V]) OnEvict(fn func(K, V)) {
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	n, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	return n.value, true
}

// Put inserts or updates the value for key as most recently used,
// evicting the least recently used entry when over capacity.
func (c *LRU[K, V]) Put(key K, value V) {
	if n, ok := c.entries[key]; ok {
		n.value = value
		c.moveToFront(n)
		return
	}

	n := &node[K, V]{key: key, value: value}
	c.entries[key] = n
	c.pushFront(n)

	if c.capacity > 0 && len(c.entries) > c.capacity {
		c.evictOldest()
	}
}

// Remove deletes the entry for key if present.
func (c *LRU[K, V]) Remove(key K) bool {
	n, ok := c.entries[key]
	if !ok {
		return false
	}
	c.unlink(n)
	delete(c.entries, key)
	return true
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	return len(c.entries)
}

// Clear removes all entries, invoking the eviction callback for each.
func (c *LRU[K, V]) Clear() {
	if c.onEvict != nil {
		for k, n := range c.entries {
			c.onEvict(k, n.value)
		}
	}
	c.entries = make(map[K]*node[K, V])
	c.head = nil
	c.tail = nil
}

func (c *LRU[K, V]) evictOldest() {
	n := c.tail
	if n == nil {
		return
	}
	c.unlink(n)
	delete(c.entries, n.key)
	if c.onEvict != nil {
		c.onEvict(n.key, n.value)
	}
}

func (c *LRU[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
