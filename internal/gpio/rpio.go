//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/sweeney/gate-dialer/internal/clock"
)

// go-rpio maps the GPIO registers once per process; sources and buttons share the mapping.
var (
	rpioMu    sync.Mutex
	rpioUsers int
)

func openRpio() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	if rpioUsers == 0 {
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("open rpio: %w", err)
		}
	}
	rpioUsers++
	return nil
}

func releaseRpio() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	if rpioUsers == 0 {
		return nil
	}
	rpioUsers--
	if rpioUsers == 0 {
		if err := rpio.Close(); err != nil {
			return fmt.Errorf("close rpio: %w", err)
		}
	}
	return nil
}

// RpioSource polls the trigger line through memory-mapped GPIO registers.
// Edges are timestamped at the sample that saw the level change.
type RpioSource struct {
	pin      int
	interval time.Duration
	clock    clock.Clock
	stop     chan struct{}
	done     chan struct{}
}

// NewRpioSource creates a polling source for a BCM pin. A non-positive
// interval uses DefaultPollInterval.
func NewRpioSource(pin int, interval time.Duration, clk clock.Clock) *RpioSource {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &RpioSource{pin: pin, interval: interval, clock: clk}
}

// Start configures the pin as a pulled-up input and begins polling it.
func (s *RpioSource) Start(h EdgeHandler) error {
	if s.stop != nil {
		return fmt.Errorf("trigger pin %d already started", s.pin)
	}
	if err := openRpio(); err != nil {
		return err
	}

	p := rpio.Pin(s.pin)
	p.Input()
	p.PullUp()

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.poll(p, h)
	return nil
}

func (s *RpioSource) poll(p rpio.Pin, h EdgeHandler) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var levels levelTracker
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if edge, ok := levels.update(p.Read() == rpio.High); ok {
				h(edge, s.clock.Now())
			}
		}
	}
}

// Close stops polling and releases the register mapping.
func (s *RpioSource) Close() error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	return releaseRpio()
}

// RpioButton reads the active-low test button through go-rpio.
type RpioButton struct {
	pin rpio.Pin
}

// NewRpioButton configures a BCM pin as a pulled-up input.
func NewRpioButton(pin int) (*RpioButton, error) {
	if err := openRpio(); err != nil {
		return nil, err
	}
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	return &RpioButton{pin: p}, nil
}

// Held reports whether the button pulls the line low.
func (b *RpioButton) Held() bool {
	return b.pin.Read() == rpio.Low
}

// Close releases the register mapping.
func (b *RpioButton) Close() error {
	return releaseRpio()
}

