// Package gate orchestrates a dialing run and the gate's idle/open/collapse cycle.
// Hardware, clocks and sleeping are injected through Config so the whole cycle
// can be driven deterministically in tests.
package gate

import (
	"io"
	"log/slog"
	"time"

	"github.com/sweeney/gate-dialer/internal/clock"
	"github.com/sweeney/gate-dialer/internal/dial"
	"github.com/sweeney/gate-dialer/internal/display"
	"github.com/sweeney/gate-dialer/internal/pulse"
)

// Outcome is the result of reaching a chevron.
type Outcome string

const (
	OutcomeEncoded       Outcome = "ENCODED"
	OutcomeLocked        Outcome = "LOCKED"
	OutcomeWillNotEngage Outcome = "WILL_NOT_ENGAGE"
)

// Phase is the gate's top-level state.
type Phase string

const (
	PhaseClosed     Phase = "CLOSED"
	PhaseDialing    Phase = "DIALING"
	PhaseOpen       Phase = "OPEN"
	PhaseCollapsing Phase = "COLLAPSING"
)

// Default timings.
const (
	DefaultFrameInterval    = 8 * time.Millisecond
	DefaultSelfTestDuration = time.Second
	DefaultCollapseDuration = 1250 * time.Millisecond
)

// Poller reports whether the trigger signal is asserted at the given time.
// *pulse.Trigger implements it.
type Poller interface {
	Poll(now pulse.Timestamp) bool
}

// ChevronEvent reports one chevron reached during a dialing run.
type ChevronEvent struct {
	Time      time.Time
	Session   int
	Number    int // 1-based position in the dialing sequence
	Chevron   int // index into dial.Landmarks
	Position  int
	Direction dial.Direction
	Outcome   Outcome
}

// Progress is the dial state after one step of a dialing run.
type Progress struct {
	Session   int
	Position  int
	Direction dial.Direction
	Locked    []int
	Asserted  bool
}

// PhaseChange reports a gate phase transition.
type PhaseChange struct {
	Time    time.Time
	Phase   Phase
	Session int
}

// Result summarizes a completed (or cancelled) dialing run.
type Result struct {
	Session   int
	Events    []ChevronEvent
	Locked    []int
	Direction dial.Direction
	Steps     int
	Engaged   bool
}

// Config carries the collaborators of a dialing run and the gate loop.
// Zero-valued optional fields get defaults from withDefaults.
type Config struct {
	Trigger  Poller
	Clock    clock.Clock
	Renderer display.Renderer
	Painter  *display.Painter
	Logger   *slog.Logger

	FrameInterval    time.Duration
	SelfTest         bool
	SelfTestDuration time.Duration
	CollapseDuration time.Duration

	// Sleep paces frames. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Now stamps events with wall-clock time. Defaults to time.Now.
	Now func() time.Time

	OnStep    func(Progress)
	OnChevron func(ChevronEvent)
	OnPhase   func(PhaseChange)
}

func (c Config) withDefaults() Config {
	if c.Renderer == nil {
		c.Renderer = display.Discard
	}
	if c.Painter == nil {
		c.Painter = display.NewPainter(time.Now().UnixNano())
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.FrameInterval < 0 {
		c.FrameInterval = 0
	}
	if c.SelfTestDuration <= 0 {
		c.SelfTestDuration = DefaultSelfTestDuration
	}
	if c.CollapseDuration <= 0 {
		c.CollapseDuration = DefaultCollapseDuration
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
