// Package cache holds search results in two tiers: a process-local LRU and
// an optional shared Redis. Keys carry the index generation, so a write to
// the index makes older entries unreachable instead of deleting them.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size-bounded, TTL-expiring map safe for concurrent use.
type LRU struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	lst   *list.List
	items map[string]*list.Element
	now   func() time.Time
}

type entry struct {
	key string
	val []byte
	exp time.Time
}

// NewLRU returns a cache of at most capacity entries. A ttl of zero never
// expires entries.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU{
		cap:   capacity,
		ttl:   ttl,
		lst:   list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}
}

func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	it := e.Value.(entry)
	if c.ttl > 0 && !c.now().Before(it.exp) {
		c.lst.Remove(e)
		delete(c.items, key)
		return nil, false
	}
	c.lst.MoveToFront(e)
	return it.val, true
}

func (c *LRU) Set(key string, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it := entry{key: key, val: val, exp: c.now().Add(c.ttl)}
	if e, ok := c.items[key]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return
	}
	c.items[key] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.items, back.Value.(entry).key)
		c.lst.Remove(back)
	}
}

// Len returns the number of entries, expired ones included.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
