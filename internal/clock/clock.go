// Package clock provides the wrapping millisecond clock the gate logic runs on.
package clock

import (
	"sync"
	"time"

	"github.com/sweeney/gate-dialer/internal/pulse"
)

// Clock returns the current reading of a wrapping millisecond clock.
type Clock interface {
	Now() pulse.Timestamp
}

// FromDuration converts a monotonic duration (e.g. a GPIO event timestamp)
// to a wrapping millisecond Timestamp.
func FromDuration(d time.Duration) pulse.Timestamp {
	return pulse.Timestamp(uint32(d.Milliseconds()))
}

// Fake is a manually driven clock for tests. Safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now pulse.Timestamp
}

// NewFake returns a fake clock starting at the given time.
func NewFake(start pulse.Timestamp) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake time.
func (f *Fake) Now() pulse.Timestamp {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake time forward by d, truncated to milliseconds.
func (f *Fake) Advance(d time.Duration) pulse.Timestamp {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += pulse.Timestamp(uint32(d.Milliseconds()))
	return f.now
}

// Set jumps the fake time to t.
func (f *Fake) Set(t pulse.Timestamp) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
