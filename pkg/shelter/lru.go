package shelter

import "github.com/shelterhq/shelter/pkg/edf"

// ContentCache is a fixed-capacity, strict-LRU cache mapping a document
// fingerprint to its parse result.
//
// Nodes live in a flat arena slice; prev/next links are indices into that
// slice, with reserved sentinel indices for the head and tail. Every
// operation is O(1), and after any Put the size never exceeds capacity.
type ContentCache struct {
	capacity int
	nodes    []cacheNode
	free     []int
	index    map[string]int
}

type cacheNode struct {
	key   string
	value *edf.Document
	prev  int
	next  int
}

// Sentinel indices in the arena. Head's next is the most-recently-used
// node; tail's prev is the least-recently-used node.
const (
	lruHead = 0
	lruTail = 1
)

// NewContentCache creates a cache holding at most capacity documents.
// Capacities below 1 are clamped to 1.
func NewContentCache(capacity int) *ContentCache {
	if capacity < 1 {
		capacity = 1
	}

	c := &ContentCache{
		capacity: capacity,
		nodes:    make([]cacheNode, 2, capacity+2),
		index:    make(map[string]int, capacity),
	}

	c.nodes[lruHead].next = lruTail
	c.nodes[lruTail].prev = lruHead

	return c
}

// Get returns the cached document for key and marks it most-recently-used.
func (c *ContentCache) Get(key string) (*edf.Document, bool) {
	idx, ok := c.index[key]
	if !ok {
		return nil, false
	}

	c.unlink(idx)
	c.linkFront(idx)

	return c.nodes[idx].value, true
}

// Put stores value under key. An existing key is updated in place and
// marked most-recently-used; a new key may evict the least-recently-used
// entry to stay within capacity.
func (c *ContentCache) Put(key string, value *edf.Document) {
	if idx, ok := c.index[key]; ok {
		c.nodes[idx].value = value
		c.unlink(idx)
		c.linkFront(idx)

		return
	}

	idx := c.alloc()
	c.nodes[idx].key = key
	c.nodes[idx].value = value
	c.index[key] = idx
	c.linkFront(idx)

	if len(c.index) > c.capacity {
		c.evict()
	}
}

// Remove deletes key from the cache. Returns true if it was present.
func (c *ContentCache) Remove(key string) bool {
	idx, ok := c.index[key]
	if !ok {
		return false
	}

	c.unlink(idx)
	c.release(idx)
	delete(c.index, key)

	return true
}

// Clear removes every entry.
func (c *ContentCache) Clear() {
	c.nodes = c.nodes[:2]
	c.nodes[lruHead].next = lruTail
	c.nodes[lruTail].prev = lruHead
	c.free = c.free[:0]
	c.index = make(map[string]int, c.capacity)
}

// Len returns the number of cached entries.
func (c *ContentCache) Len() int {
	return len(c.index)
}

// Capacity returns the configured maximum size.
func (c *ContentCache) Capacity() int {
	return c.capacity
}

func (c *ContentCache) evict() {
	victim := c.nodes[lruTail].prev
	if victim == lruHead {
		return
	}

	c.unlink(victim)
	delete(c.index, c.nodes[victim].key)
	c.release(victim)
}

func (c *ContentCache) alloc() int {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]

		return idx
	}

	c.nodes = append(c.nodes, cacheNode{})

	return len(c.nodes) - 1
}

func (c *ContentCache) release(idx int) {
	c.nodes[idx] = cacheNode{}
	c.free = append(c.free, idx)
}

func (c *ContentCache) unlink(idx int) {
	prev := c.nodes[idx].prev
	next := c.nodes[idx].next
	c.nodes[prev].next = next
	c.nodes[next].prev = prev
}

func (c *ContentCache) linkFront(idx int) {
	first := c.nodes[lruHead].next
	c.nodes[idx].prev = lruHead
	c.nodes[idx].next = first
	c.nodes[lruHead].next = idx
	c.nodes[first].prev = idx
}
