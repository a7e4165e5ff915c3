package gpio

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/gate-dialer/internal/clock"
	"github.com/sweeney/gate-dialer/internal/pulse"
)

// edgePollTimeout bounds how long the watch loop blocks before checking for Close.
const edgePollTimeout = 100 * time.Millisecond

var hostInit = sync.OnceValue(func() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init periph host: %w", err)
	}
	return nil
})

// PeriphSource reads trigger edges through periph.io. Edges are timestamped
// in user space when the wait returns, so widths carry scheduling jitter.
type PeriphSource struct {
	name  string
	clock clock.Clock
	pin   gpio.PinIO
	stop  chan struct{}
	done  chan struct{}
}

// NewPeriphSource creates a source for the named pin (for example "GPIO4").
func NewPeriphSource(name string, clk clock.Clock) *PeriphSource {
	return &PeriphSource{name: name, clock: clk}
}

// Start configures the pin for both edges and begins watching it.
func (s *PeriphSource) Start(h EdgeHandler) error {
	if s.pin != nil {
		return fmt.Errorf("trigger pin %s already started", s.name)
	}
	if err := hostInit(); err != nil {
		return err
	}

	p := gpioreg.ByName(s.name)
	if p == nil {
		return fmt.Errorf("trigger pin %s not found", s.name)
	}
	if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return fmt.Errorf("configure trigger pin %s: %w", s.name, err)
	}

	s.pin = p
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.watch(h)
	return nil
}

func (s *PeriphSource) watch(h EdgeHandler) {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if !s.pin.WaitForEdge(edgePollTimeout) {
			continue
		}
		at := s.clock.Now()
		if s.pin.Read() == gpio.High {
			h(pulse.Rising, at)
		} else {
			h(pulse.Falling, at)
		}
	}
}

// Close stops the watch loop and disables edge detection.
func (s *PeriphSource) Close() error {
	if s.pin == nil {
		return nil
	}
	close(s.stop)
	<-s.done

	err := s.pin.In(gpio.PullNoChange, gpio.NoEdge)
	s.pin = nil
	if err != nil {
		return fmt.Errorf("release trigger pin %s: %w", s.name, err)
	}
	return nil
}

// PeriphButton reads the active-low test button through periph.io.
type PeriphButton struct {
	pin gpio.PinIO
}

// NewPeriphButton configures the named pin as a pulled-up input.
func NewPeriphButton(name string) (*PeriphButton, error) {
	if err := hostInit(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("test pin %s not found", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure test pin %s: %w", name, err)
	}
	return &PeriphButton{pin: p}, nil
}

// Held reports whether the button pulls the line low.
func (b *PeriphButton) Held() bool {
	return b.pin.Read() == gpio.Low
}
