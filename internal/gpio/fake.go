package gpio

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sweeney/gate-dialer/internal/pulse"
)

// FakeSource is an EdgeSource driven by tests or left idle when no hardware is attached.
type FakeSource struct {
	mu      sync.Mutex
	handler EdgeHandler
	closed  bool

	// StartError, if set, is returned by Start.
	StartError error
}

// NewFakeSource creates an idle fake source.
func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

// Start records the handler.
func (f *FakeSource) Start(h EdgeHandler) error {
	if f.StartError != nil {
		return f.StartError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handler != nil {
		return errors.New("fake source already started")
	}
	f.handler = h
	return nil
}

// Close stops delivery. Further edges are dropped.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Emit delivers one edge. It returns false if the source is not running.
func (f *FakeSource) Emit(edge pulse.Edge, at pulse.Timestamp) bool {
	f.mu.Lock()
	h := f.handler
	closed := f.closed
	f.mu.Unlock()

	if h == nil || closed {
		return false
	}
	h(edge, at)
	return true
}

// Pulse delivers a rising edge at start and a falling edge width ms later.
func (f *FakeSource) Pulse(start pulse.Timestamp, width uint32) bool {
	if !f.Emit(pulse.Rising, start) {
		return false
	}
	return f.Emit(pulse.Falling, start+pulse.Timestamp(width))
}

// Running reports whether the source has been started and not closed.
func (f *FakeSource) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil && !f.closed
}

// FakeButton is a Button whose state is set by tests.
type FakeButton struct {
	held atomic.Bool
}

// Set presses or releases the button.
func (b *FakeButton) Set(held bool) {
	b.held.Store(held)
}

// Held reports the last value passed to Set.
func (b *FakeButton) Held() bool {
	return b.held.Load()
}
