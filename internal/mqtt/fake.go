package mqtt

import (
	"github.com/sweeney/gate-dialer/internal/gate"
)

// FakePublisher stands in for the broker in tests. Chevron outcomes and
// system events are recorded with their encoded payloads; phase changes and
// heartbeats are also tallied on their own so a test can check one stream
// without filtering the rest.
type FakePublisher struct {
	// Events and Payloads hold published chevron outcomes, index-aligned.
	Events   []gate.ChevronEvent
	Payloads [][]byte

	// SystemEvents and SystemPayloads hold every system event in publish order.
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Phases lists the phase carried by each PHASE event.
	Phases []string

	// Heartbeats counts HEARTBEAT events.
	Heartbeats int

	// ChevronErr and SystemErr, if set, fail the matching publish call
	// without recording anything.
	ChevronErr error
	SystemErr  error

	Closed    bool
	Connected bool
}

// NewFakePublisher returns an empty, disconnected fake.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishChevron records a chevron outcome.
func (f *FakePublisher) PublishChevron(event gate.ChevronEvent) error {
	if f.ChevronErr != nil {
		return f.ChevronErr
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records a system event and updates the per-kind tallies.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.SystemErr != nil {
		return f.SystemErr
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)

	switch event.Event {
	case EventPhase:
		f.Phases = append(f.Phases, event.Reason)
	case EventHeartbeat:
		f.Heartbeats++
	}
	return nil
}

// Lifecycle returns the names of system events other than phase changes and
// heartbeats, in publish order.
func (f *FakePublisher) Lifecycle() []string {
	var names []string
	for _, ev := range f.SystemEvents {
		if ev.Event == EventPhase || ev.Event == EventHeartbeat {
			continue
		}
		names = append(names, ev.Event)
	}
	return names
}

// Close marks the fake closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset returns the fake to its initial state.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
