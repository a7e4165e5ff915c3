// Package gpio delivers SOL21 edges from hardware with a hardware abstraction.
// The Linux implementation uses the GPIO character device. Alternate backends
// use periph.io, memory-mapped polling via go-rpio, or the sysfs edge watcher.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/gate-dialer/internal/pulse"
)

// EdgeHandler receives each edge of the trigger line with its timestamp.
// It is called from the source's own goroutine.
type EdgeHandler func(edge pulse.Edge, at pulse.Timestamp)

// EdgeSource watches the trigger line and reports its edges.
type EdgeSource interface {
	// Start begins delivering edges to h. It must be called at most once.
	Start(h EdgeHandler) error

	// Close stops delivery and releases GPIO resources.
	Close() error
}

// Button is the bench test button that forces the gate triggered while held.
type Button interface {
	Held() bool
}

// Pin definitions (BCM numbering)
const (
	DefaultChip       = "gpiochip0"
	DefaultTriggerPin = 4 // SOL21 via opto-isolator, open drain
	DefaultTestPin    = 7
)

// DefaultPollInterval is how often polled backends sample the trigger line.
// Pulse widths are classified in whole milliseconds, so 1ms keeps them exact to within one sample.
const DefaultPollInterval = time.Millisecond

// levelTracker turns successive line levels into edges. The first level
// only establishes the baseline, so a line already high at startup does not
// report a rising edge that was never observed.
type levelTracker struct {
	known bool
	high  bool
}

// update records a level and reports the edge it implies, if any.
func (l *levelTracker) update(high bool) (pulse.Edge, bool) {
	if !l.known {
		l.known = true
		l.high = high
		return pulse.Falling, false
	}
	if high == l.high {
		return pulse.Falling, false
	}
	l.high = high
	if high {
		return pulse.Rising, true
	}
	return pulse.Falling, true
}
