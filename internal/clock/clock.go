// Package clock provides an overridable time source for the routing
// loop, so its timers can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time through a swappable function, so
// callers can substitute a fixed or stepped clock in tests.
type Clock struct {
	mu    sync.Mutex
	nowFn func() time.Time
}

// New creates a Clock backed by the real system clock.
func New() *Clock {
	return &Clock{nowFn: time.Now}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowFn()
}

// SetFunc overrides the time source. Intended for tests only.
func (c *Clock) SetFunc(fn func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowFn = fn
}
