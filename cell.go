package tempo

// Cell holds one value for the reactive layer. Writing a value that is the
// same as the current one (same reference for maps, pointers, slices, funcs
// and chans; == for comparable values) does nothing. Any other write replaces
// the value and notifies subscribers.
//
// Cells are not safe for concurrent use; like the rest of tempo they live on
// the game loop goroutine.
type Cell[T any] struct {
	value     T
	version   uint64
	disposed  bool
	listeners map[int]func()
	nextID    int
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Read returns the current value.
func (c *Cell[T]) Read() T {
	return c.value
}

// Version counts propagated writes.
func (c *Cell[T]) Version() uint64 {
	return c.version
}

// Write stores v and reports whether it propagated. Writes to a disposed cell
// are dropped.
func (c *Cell[T]) Write(v T) bool {
	if c.disposed {
		return false
	}
	if same(any(c.value), any(v)) {
		return false
	}
	c.value = v
	c.version++
	for _, fn := range c.listeners {
		fn()
	}
	return true
}

// Subscribe adds fn to the listeners notified after each propagated write.
// Returns an unsubscribe function.
func (c *Cell[T]) Subscribe(fn func()) func() {
	if c.listeners == nil {
		c.listeners = make(map[int]func())
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		delete(c.listeners, id)
	}
}

// Dispose drops all listeners and makes later writes no-ops.
func (c *Cell[T]) Dispose() {
	c.disposed = true
	c.listeners = nil
}

// Disposed reports whether Dispose has been called.
func (c *Cell[T]) Disposed() bool {
	return c.disposed
}
