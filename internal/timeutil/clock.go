package timeutil

import (
	"sync"
	"time"
)

// Clock hands out epoch-millisecond timestamps that are strictly increasing
// for the lifetime of the process. When the wall clock has not advanced past
// the previous value, the next timestamp is the previous one plus 1ms. The
// guarantee is process-local only.
type Clock struct {
	mu   sync.Mutex
	last int64
}

// NewClock returns a Clock starting from the current wall time.
func NewClock() *Clock {
	return &Clock{}
}

// NowMillis returns the next timestamp in milliseconds since the Unix epoch.
func (c *Clock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}
