package catalog

import "sync"

// Collection is an insertion-ordered list of records behind one lock.
// Callbacks run under that lock and must not do network I/O.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	idOf  func(T) int
	clone func(T) T
	alloc IDAllocator
}

func newCollection[T any](idOf func(T) int, clone func(T) T, alloc IDAllocator) *Collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	if alloc == nil {
		alloc = MaxPlusOne{}
	}
	return &Collection[T]{idOf: idOf, clone: clone, alloc: alloc}
}

func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, c.clone(v))
	}
	return out
}

func (c *Collection[T]) Get(id int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Insert allocates the id and appends under the same lock.
func (c *Collection[T]) Insert(build func(id int) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	maxID := 0
	for _, v := range c.items {
		if id := c.idOf(v); id > maxID {
			maxID = id
		}
	}

	v := c.clone(build(c.alloc.Next(maxID)))
	c.items = append(c.items, v)
	return c.clone(v)
}

func (c *Collection[T]) Replace(id int, fn func(*T)) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	fn(&c.items[i])
	return c.clone(c.items[i]), true
}

func (c *Collection[T]) UpdateWhere(match func(T) bool, fn func(*T)) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for i := range c.items {
		if match(c.items[i]) {
			fn(&c.items[i])
			n++
		}
	}
	return n
}

func (c *Collection[T]) Remove(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return true
}

func (c *Collection[T]) indexOf(id int) int {
	for i, v := range c.items {
		if c.idOf(v) == id {
			return i
		}
	}
	return -1
}
