package gate

import (
	"time"

	"github.com/sweeney/gate-dialer/internal/clock"
	"github.com/sweeney/gate-dialer/internal/display"
	"github.com/sweeney/gate-dialer/internal/pulse"
)

// harness wires a fake clock and a pulse generator into the real capture and
// trigger. Every frame sleep advances the clock and emits any pulse that has
// completed in the meantime, as the edge handler would.
type harness struct {
	clk      *clock.Fake
	capture  *pulse.Capture
	trigger  *pulse.Trigger
	recorder *display.Recorder

	pulsing  bool
	width    uint32
	period   uint32
	nextRise pulse.Timestamp

	events []ChevronEvent
	phases []Phase
	steps  int
}

func newHarness(pulsing bool) *harness {
	h := &harness{
		clk:      clock.NewFake(1000),
		capture:  pulse.NewCapture(),
		recorder: display.NewRecorder(),
		pulsing:  pulsing,
		width:    50,
		period:   100,
	}
	h.trigger = pulse.NewTrigger(h.capture, nil)
	h.nextRise = h.clk.Now()
	return h
}

func (h *harness) sleep(d time.Duration) {
	now := h.clk.Advance(d)
	if !h.pulsing {
		h.nextRise = now
		return
	}
	for now.Sub(h.nextRise) >= h.width && now.Sub(h.nextRise) < 1<<31 {
		h.capture.OnEdge(pulse.Rising, h.nextRise)
		h.capture.OnEdge(pulse.Falling, h.nextRise+pulse.Timestamp(h.width))
		h.nextRise += pulse.Timestamp(h.period)
	}
}

func (h *harness) config() Config {
	return Config{
		Trigger:       h.trigger,
		Clock:         h.clk,
		Renderer:      h.recorder,
		Painter:       display.NewPainter(7),
		FrameInterval: DefaultFrameInterval,
		Sleep:         h.sleep,
		Now: func() time.Time {
			return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		},
		OnStep:    func(Progress) { h.steps++ },
		OnChevron: func(ev ChevronEvent) { h.events = append(h.events, ev) },
		OnPhase:   func(pc PhaseChange) { h.phases = append(h.phases, pc.Phase) },
	}
}

type pollerFunc func(now pulse.Timestamp) bool

func (f pollerFunc) Poll(now pulse.Timestamp) bool {
	return f(now)
}
