package notify

import "sync/atomic"

// Counter is a shared integer cell. A gate and all of its child gates hold
// the same *Counter, so a programmatic write started by one sub-controller
// suppresses notifications in all of them.
type Counter struct {
	n atomic.Int64
}

// NewCounter returns a counter at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Acquire increments the counter and returns the matching release. The
// release is idempotent, so it is safe both to defer it and to call it
// early.
func (c *Counter) Acquire() (release func()) {
	c.n.Add(1)
	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			c.n.Add(-1)
		}
	}
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return c.n.Load()
}
