package store

import (
	"sync"
	"time"
)

// Clock hands out strictly increasing timestamps at a fixed resolution.
// Chats use created_at as their key, so two appends must never share one.
type Clock struct {
	mu         sync.Mutex
	resolution time.Duration
	last       time.Time
	now        func() time.Time
}

// NewClock returns a clock truncating to resolution (e.g. time.Millisecond for
// stores that persist millisecond datetimes).
func NewClock(resolution time.Duration) *Clock {
	if resolution <= 0 {
		resolution = time.Nanosecond
	}
	return &Clock{resolution: resolution, now: time.Now}
}

// Now returns the current UTC time, bumped past the previous value if needed.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(c.resolution)
	if !t.After(c.last) {
		t = c.last.Add(c.resolution)
	}
	c.last = t
	return t
}
