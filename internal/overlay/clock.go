package overlay

import (
	"sort"
	"sync"
	"time"
)

// Clock schedules the step that follows an animation phase.
type Clock interface {
	// AfterFunc calls f once d has elapsed. f must run on the render loop.
	AfterFunc(d time.Duration, f func())
}

// LoopClock waits in real time and posts f to a render loop.
type LoopClock struct {
	Loop *Loop
}

// AfterFunc implements Clock.
func (c LoopClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() {
		c.Loop.Post(f)
	})
}

// ManualClock is a Clock that only moves when Advance is called. Callbacks
// run synchronously inside Advance, which makes animation sequences
// testable without real delays.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []manualTimer
}

type manualTimer struct {
	at  time.Duration
	seq int
	f   func()
}

// NewManualClock creates a ManualClock at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// AfterFunc implements Clock.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.timers = append(c.timers, manualTimer{at: c.now + d, seq: c.seq, f: f})
}

// Now returns the elapsed manual time.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending returns the number of scheduled callbacks that have not fired.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves time forward by d, firing due callbacks in order. Callbacks
// scheduled while advancing fire too if they fall within d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d

	for {
		sort.Slice(c.timers, func(i, j int) bool {
			if c.timers[i].at != c.timers[j].at {
				return c.timers[i].at < c.timers[j].at
			}
			return c.timers[i].seq < c.timers[j].seq
		})

		if len(c.timers) == 0 || c.timers[0].at > target {
			break
		}

		next := c.timers[0]
		c.timers = c.timers[1:]
		c.now = next.at

		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}
