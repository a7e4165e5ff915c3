//go:build linux

package clock

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/sweeney/gate-dialer/internal/pulse"
)

// Monotonic reads CLOCK_MONOTONIC, the same clock the GPIO character device
// stamps line events with, so edge timestamps and Now share one time base.
type Monotonic struct{}

// NewMonotonic returns the system monotonic clock.
func NewMonotonic() Monotonic {
	return Monotonic{}
}

// Now returns milliseconds since boot, wrapping at 2^32.
func (Monotonic) Now() pulse.Timestamp {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return FromDuration(time.Since(processStart))
	}
	return FromDuration(time.Duration(ts.Nano()))
}

var processStart = time.Now()
