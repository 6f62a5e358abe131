package engine

import "sync/atomic"

// Clock hands out increasing sequence numbers. BasicHost derives function
// addresses from it and the store orders its log by it. Safe for concurrent
// use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is after+1.
func NewClock(after int64) *Clock {
	c := &Clock{}
	c.seq.Store(after)
	return c
}

// Next advances the clock.
func (c *Clock) Next() int64 { return c.seq.Add(1) }

// Current is the last value handed out.
func (c *Clock) Current() int64 { return c.seq.Load() }
