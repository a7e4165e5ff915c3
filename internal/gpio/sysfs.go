//go:build linux

package gpio

import (
	"fmt"

	sysfs "github.com/brian-armstrong/gpio"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/sweeney/gate-dialer/internal/clock"
)

// SysfsSource watches the trigger line through the legacy sysfs GPIO
// interface with epoll edge notification. sysfs cannot set pulls, so the
// pull-up is applied through go-rpio first.
type SysfsSource struct {
	pin     uint
	clock   clock.Clock
	watcher *sysfs.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// NewSysfsSource creates a source for a BCM pin.
func NewSysfsSource(pin int, clk clock.Clock) *SysfsSource {
	return &SysfsSource{pin: uint(pin), clock: clk}
}

// Start exports the pin, enables both-edge notification and begins watching it.
func (s *SysfsSource) Start(h EdgeHandler) error {
	if s.watcher != nil {
		return fmt.Errorf("trigger pin %d already started", s.pin)
	}
	if err := openRpio(); err != nil {
		return err
	}
	rpio.Pin(s.pin).PullUp()

	s.watcher = sysfs.NewWatcher()
	s.watcher.AddPin(s.pin)

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.watch(h)
	return nil
}

func (s *SysfsSource) watch(h EdgeHandler) {
	defer close(s.done)

	// The watcher reports the current level when the pin is added; that sets the baseline.
	var levels levelTracker
	for {
		select {
		case <-s.stop:
			return
		case n, ok := <-s.watcher.Notification:
			if !ok {
				return
			}
			if n.Pin != s.pin {
				continue
			}
			if edge, ok := levels.update(n.Value != 0); ok {
				h(edge, s.clock.Now())
			}
		}
	}
}

// Close stops the watcher and unexports the pin.
func (s *SysfsSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.stop)
	<-s.done

	// Keep draining so the watcher never blocks on a send while it shuts down.
	w := s.watcher
	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()
	for {
		select {
		case <-closed:
			s.watcher = nil
			return releaseRpio()
		case <-w.Notification:
		}
	}
}
