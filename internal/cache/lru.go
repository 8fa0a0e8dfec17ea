package cache

import (
	"sync"
	"time"
)

// LRUCache holds at most maxSize entries. An entry dies after ttl without a
// hit; every hit restarts its clock. When full, the least recently used
// entry makes room.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	index map[string]*node[T]
	// head is the most recently used entry, tail the least.
	head, tail *node[T]
}

type node[T any] struct {
	key        string
	value      T
	deadline   time.Time
	prev, next *node[T]
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: max(maxSize, 1),
		ttl:     ttl,
		now:     time.Now,
		index:   make(map[string]*node[T]),
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touch(key)
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value)
}

// GetOrCreate returns the live value for key or stores the result of
// create. The bool reports whether create ran. create runs under the lock
// and must not use the cache.
func (c *LRUCache[T]) GetOrCreate(key string, create func() T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.touch(key); ok {
		return v, false
	}
	v := create()
	c.put(key, v)
	return v, true
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.index[key]; ok {
		c.drop(n)
	}
}

// CleanExpired drops every dead entry and returns how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now, dropped := c.now(), 0
	for n := c.tail; n != nil; {
		prev := n.prev
		if now.After(n.deadline) {
			c.drop(n)
			dropped++
		}
		n = prev
	}
	return dropped
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) touch(key string) (T, bool) {
	var zero T
	n, ok := c.index[key]
	if !ok {
		return zero, false
	}
	now := c.now()
	if now.After(n.deadline) {
		c.drop(n)
		return zero, false
	}
	n.deadline = now.Add(c.ttl)
	c.unlink(n)
	c.pushFront(n)
	return n.value, true
}

func (c *LRUCache[T]) put(key string, value T) {
	if n, ok := c.index[key]; ok {
		c.unlink(n)
		n.value, n.deadline = value, c.now().Add(c.ttl)
		c.pushFront(n)
		return
	}
	n := &node[T]{key: key, value: value, deadline: c.now().Add(c.ttl)}
	c.index[key] = n
	c.pushFront(n)
	if len(c.index) > c.maxSize {
		c.drop(c.tail)
	}
}

func (c *LRUCache[T]) drop(n *node[T]) {
	c.unlink(n)
	delete(c.index, n.key)
}

func (c *LRUCache[T]) pushFront(n *node[T]) {
	n.prev, n.next = nil, c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRUCache[T]) unlink(n *node[T]) {
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
	n.prev, n.next = nil, nil
}
