package passing

import "sync"

// cell is a value guarded by its own mutex. Every mutable field the
// generator shares between the worker and its callers lives in a cell, and
// no method holds two cells at once: each accessor copies the value in or
// out under the lock and releases it before touching anything else.
type cell[T any] struct {
	mu sync.Mutex
	v  T
}

func (c *cell[T]) load() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *cell[T]) store(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v = v
}

// swap stores v and returns the previous value.
func (c *cell[T]) swap(v T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.v
	c.v = v
	return old
}
