package pulse

import "sync/atomic"

// haveRising tags the pending word when a rising edge is waiting for its falling edge.
const haveRising = uint64(1) << 32

// Capture pairs rising and falling edges into Samples.
//
// OnEdge is called from the edge handler goroutine and Take from the main loop.
// The pending rising edge lives in a single atomic word (tag bit + timestamp) and
// completed samples are handed over through a one-slot atomic cell, so the
// consumer sees a whole Sample or nothing. One producer and one consumer; no locks.
type Capture struct {
	pending atomic.Uint64
	ready   atomic.Pointer[Sample]

	completed   atomic.Uint64
	spurious    atomic.Uint64
	overwritten atomic.Uint64
}

// CaptureStats counts what the capture has seen since creation.
type CaptureStats struct {
	Completed   uint64
	Spurious    uint64
	Overwritten uint64
}

// NewCapture returns an idle capture with no pending edge.
func NewCapture() *Capture {
	return &Capture{}
}

// OnEdge records an edge observed at the given time.
// A falling edge that completes a pulse returns the sample and publishes it for Take.
// A falling edge with no rising edge pending is dropped.
func (c *Capture) OnEdge(edge Edge, at Timestamp) (Sample, bool) {
	if edge == Rising {
		c.pending.Store(haveRising | uint64(at))
		return Sample{}, false
	}

	p := c.pending.Swap(0)
	if p&haveRising == 0 {
		c.spurious.Add(1)
		return Sample{}, false
	}

	s := Sample{Rising: Timestamp(uint32(p)), Falling: at}
	if prev := c.ready.Swap(&s); prev != nil {
		c.overwritten.Add(1)
	}
	c.completed.Add(1)
	return s, true
}

// Pending reports whether a rising edge is waiting for its falling edge.
func (c *Capture) Pending() bool {
	return c.pending.Load()&haveRising != 0
}

// Take removes and returns the most recent completed sample, if any.
func (c *Capture) Take() (Sample, bool) {
	p := c.ready.Swap(nil)
	if p == nil {
		return Sample{}, false
	}
	return *p, true
}

// Stats returns the capture counters.
func (c *Capture) Stats() CaptureStats {
	return CaptureStats{
		Completed:   c.completed.Load(),
		Spurious:    c.spurious.Load(),
		Overwritten: c.overwritten.Load(),
	}
}
