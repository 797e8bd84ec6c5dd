// Package clock abstracts the source of "current time" so engines can take
// exactly one reading per call and tests can drive time by hand. Time is
// always unix milliseconds and never decreases.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time in unix milliseconds.
type Clock interface {
	Now() int64
}

// System reads the wall clock.
type System struct{}

// Now returns time.Now in unix milliseconds.
func (System) Now() int64 {
	return time.Now().UnixMilli()
}

// Manual is a hand-advanced clock for tests. It only moves forward.
type Manual struct {
	mu  sync.Mutex
	now int64
}

// NewManual creates a Manual clock starting at the given unix-millisecond
// timestamp.
func NewManual(startMs int64) *Manual {
	return &Manual{now: startMs}
}

// Now returns the current manual time.
func (m *Manual) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	m.mu.Lock()
	m.now += d.Milliseconds()
	m.mu.Unlock()
}

// Set moves the clock to the given timestamp if it is not in the past.
func (m *Manual) Set(ms int64) {
	m.mu.Lock()
	if ms > m.now {
		m.now = ms
	}
	m.mu.Unlock()
}
