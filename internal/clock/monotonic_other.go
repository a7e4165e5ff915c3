//go:build !linux

package clock

import (
	"time"

	"github.com/sweeney/gate-dialer/internal/pulse"
)

// Monotonic counts milliseconds since process start on platforms without
// CLOCK_MONOTONIC access.
type Monotonic struct{}

// NewMonotonic returns the process-relative monotonic clock.
func NewMonotonic() Monotonic {
	return Monotonic{}
}

// Now returns milliseconds since process start, wrapping at 2^32.
func (Monotonic) Now() pulse.Timestamp {
	return FromDuration(time.Since(processStart))
}

var processStart = time.Now()
