// Package status provides a thread-safe status tracker for the gate-dialer daemon.
// It is written from the gate loop and read by HTTP handlers and MQTT publishing.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/gate-dialer/internal/dial"
	"github.com/sweeney/gate-dialer/internal/gate"
	"github.com/sweeney/gate-dialer/internal/pulse"
)

// Config contains daemon configuration for display.
type Config struct {
	Backend    string
	TriggerPin string
	TestPin    string
	FrameMs    int64
	SelfTest   bool
	Broker     string
	HTTPAddr   string
	HomeKit    bool
}

// TriggerState is the trigger's view after the most recent poll.
type TriggerState struct {
	Asserted bool
	LastMode pulse.Mode
	Buffered int
	Counts   pulse.TriggerCounts
	Capture  pulse.CaptureStats
}

// OutcomeCounts tallies chevron outcomes since startup.
type OutcomeCounts struct {
	Encoded       int
	Locked        int
	WillNotEngage int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Phase         gate.Phase
	Session       int
	Position      int
	Direction     dial.Direction
	Locked        []int
	Trigger       TriggerState
	Outcomes      OutcomeCounts
	LastChevron   *gate.ChevronEvent
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     gate.PhaseClosed,
			Direction: dial.Clockwise,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetPhase records a gate phase transition. Entering DIALING clears the
// previous run's dial state.
func (t *Tracker) SetPhase(pc gate.PhaseChange) {
	t.mu.Lock()
	t.snap.Phase = pc.Phase
	t.snap.Session = pc.Session
	if pc.Phase == gate.PhaseDialing {
		t.snap.Position = 0
		t.snap.Direction = dial.Clockwise
		t.snap.Locked = nil
		t.snap.LastChevron = nil
	}
	t.mu.Unlock()
}

// SetProgress records the dial state after one step.
func (t *Tracker) SetProgress(p gate.Progress) {
	locked := append([]int(nil), p.Locked...)
	t.mu.Lock()
	t.snap.Session = p.Session
	t.snap.Position = p.Position
	t.snap.Direction = p.Direction
	t.snap.Locked = locked
	t.mu.Unlock()
}

// RecordChevron tallies a chevron outcome and remembers it as the latest.
func (t *Tracker) RecordChevron(ev gate.ChevronEvent) {
	t.mu.Lock()
	switch ev.Outcome {
	case gate.OutcomeEncoded:
		t.snap.Outcomes.Encoded++
	case gate.OutcomeLocked:
		t.snap.Outcomes.Locked++
	case gate.OutcomeWillNotEngage:
		t.snap.Outcomes.WillNotEngage++
	}
	t.snap.LastChevron = &ev
	t.snap.Locked = append(append([]int(nil), t.snap.Locked...), ev.Chevron)
	t.mu.Unlock()
}

// SetTrigger records the trigger state after a poll.
func (t *Tracker) SetTrigger(ts TriggerState) {
	t.mu.Lock()
	t.snap.Trigger = ts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Locked = append([]int(nil), t.snap.Locked...)
	if t.snap.LastChevron != nil {
		ev := *t.snap.LastChevron
		s.LastChevron = &ev
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
