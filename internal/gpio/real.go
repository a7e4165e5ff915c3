//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/gate-dialer/internal/clock"
	"github.com/sweeney/gate-dialer/internal/pulse"
)

// CdevSource reads trigger edges from the Linux GPIO character device.
// Event timestamps come from the kernel's CLOCK_MONOTONIC, the same base as clock.Monotonic.
type CdevSource struct {
	chip     string
	pin      int
	debounce time.Duration
	line     *gpiocdev.Line
}

// NewCdevSource creates an edge source for the given chip and line offset.
// A positive debounce enables kernel debouncing on the line.
func NewCdevSource(chip string, pin int, debounce time.Duration) *CdevSource {
	return &CdevSource{chip: chip, pin: pin, debounce: debounce}
}

// Start requests the line with both-edge detection and forwards events to h.
func (s *CdevSource) Start(h EdgeHandler) error {
	if s.line != nil {
		return fmt.Errorf("trigger pin %d already started", s.pin)
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			at := clock.FromDuration(evt.Timestamp)
			if evt.Type == gpiocdev.LineEventRisingEdge {
				h(pulse.Rising, at)
			} else {
				h(pulse.Falling, at)
			}
		}),
	}
	if s.debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(s.debounce))
	}

	line, err := gpiocdev.RequestLine(s.chip, s.pin, opts...)
	if err != nil {
		return fmt.Errorf("request trigger pin %d on %s: %w", s.pin, s.chip, err)
	}
	s.line = line
	return nil
}

// Close releases the trigger line.
func (s *CdevSource) Close() error {
	if s.line == nil {
		return nil
	}
	err := s.line.Close()
	s.line = nil
	if err != nil {
		return fmt.Errorf("close trigger pin %d: %w", s.pin, err)
	}
	return nil
}

// CdevButton reads the active-low test button from the GPIO character device.
type CdevButton struct {
	pin  int
	line *gpiocdev.Line
}

// NewCdevButton requests the button line as a pulled-up input.
func NewCdevButton(chip string, pin int) (*CdevButton, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request test pin %d on %s: %w", pin, chip, err)
	}
	return &CdevButton{pin: pin, line: line}, nil
}

// Held reports whether the button pulls the line low. Read errors count as released.
func (b *CdevButton) Held() bool {
	v, err := b.line.Value()
	if err != nil {
		return false
	}
	return v == 0
}

// Close releases the button line.
func (b *CdevButton) Close() error {
	if err := b.line.Close(); err != nil {
		return fmt.Errorf("close test pin %d: %w", b.pin, err)
	}
	return nil
}
