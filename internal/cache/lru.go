// Package cache provides a size-bounded LRU cache for decoded artifacts.
package cache

import (
	"sync"

	list "github.com/bahlo/generic-list-go"
)

type entry struct {
	key   string
	value any
	size  int64
}

// LRU is a least-recently-used cache bounded by the sum of entry sizes in
// bytes. Entries never expire by time. It is safe for concurrent use.
//
// Values are stored as-is; callers must not mutate a value after Set or after
// receiving it from Get.
type LRU struct {
	mu       sync.Mutex
	capacity int64
	size     int64
	ll       *list.List[*entry]
	items    map[string]*list.Element[*entry]

	hits, misses, evictions uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int    `json:"entries"`
	Bytes     int64  `json:"bytes"`
	Capacity  int64  `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// New returns an LRU holding at most capacity bytes. A capacity <= 0 disables
// caching: every Get misses.
func New(capacity int64) *LRU {
	return &LRU{
		capacity: capacity,
		ll:       list.New[*entry](),
		items:    make(map[string]*list.Element[*entry]),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.ll.MoveToFront(e)
	return e.Value.value, true
}

// Set stores value under key, accounting size bytes, then evicts least
// recently used entries until the total fits. A value larger than the whole
// capacity is not stored, and any previous value for key is dropped.
func (c *LRU) Set(key string, value any, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.removeElement(e)
	}
	if size > c.capacity {
		return
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, value: value, size: size})
	c.size += size
	for c.size > c.capacity {
		last := c.ll.Back()
		if last == nil {
			break
		}
		c.removeElement(last)
		c.evictions++
	}
}

// Delete removes key if present.
func (c *LRU) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.removeElement(e)
	}
}

// Len returns the number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Size returns the total accounted bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns a snapshot of the counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   c.ll.Len(),
		Bytes:     c.size,
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *LRU) removeElement(e *list.Element[*entry]) {
	c.ll.Remove(e)
	delete(c.items, e.Value.key)
	c.size -= e.Value.size
}
