package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic clock for tests that record timestamps.
//
// The first call to Now returns the start time; every later call advances
// by one second. Safe for concurrent use.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
}

// NewStepClock returns a clock starting at 2024-01-01T00:00:00Z.
func NewStepClock() *StepClock {
	return &StepClock{next: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current time and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}
