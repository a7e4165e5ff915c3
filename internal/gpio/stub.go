//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/gate-dialer/internal/clock"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevSource is not available on non-Linux platforms.
type CdevSource struct{}

// NewCdevSource returns a source whose Start always fails on non-Linux platforms.
func NewCdevSource(chip string, pin int, debounce time.Duration) *CdevSource {
	return &CdevSource{}
}

// Start is not implemented on non-Linux platforms.
func (s *CdevSource) Start(h EdgeHandler) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *CdevSource) Close() error {
	return nil
}

// CdevButton is not available on non-Linux platforms.
type CdevButton struct{}

// NewCdevButton returns an error on non-Linux platforms.
func NewCdevButton(chip string, pin int) (*CdevButton, error) {
	return nil, errUnsupported
}

// Held always reports released.
func (b *CdevButton) Held() bool {
	return false
}

// Close is not implemented on non-Linux platforms.
func (b *CdevButton) Close() error {
	return nil
}

// RpioSource is not available on non-Linux platforms.
type RpioSource struct{}

// NewRpioSource returns a source whose Start always fails on non-Linux platforms.
func NewRpioSource(pin int, interval time.Duration, clk clock.Clock) *RpioSource {
	return &RpioSource{}
}

// Start is not implemented on non-Linux platforms.
func (s *RpioSource) Start(h EdgeHandler) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *RpioSource) Close() error {
	return nil
}

// RpioButton is not available on non-Linux platforms.
type RpioButton struct{}

// NewRpioButton returns an error on non-Linux platforms.
func NewRpioButton(pin int) (*RpioButton, error) {
	return nil, errUnsupported
}

// Held always reports released.
func (b *RpioButton) Held() bool {
	return false
}

// Close is not implemented on non-Linux platforms.
func (b *RpioButton) Close() error {
	return nil
}

// SysfsSource is not available on non-Linux platforms.
type SysfsSource struct{}

// NewSysfsSource returns a source whose Start always fails on non-Linux platforms.
func NewSysfsSource(pin int, clk clock.Clock) *SysfsSource {
	return &SysfsSource{}
}

// Start is not implemented on non-Linux platforms.
func (s *SysfsSource) Start(h EdgeHandler) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *SysfsSource) Close() error {
	return nil
}
