package pulse

import (
	"io"
	"log/slog"
)

// SampleSource hands over completed samples. Capture implements it.
type SampleSource interface {
	Take() (Sample, bool)
}

// TriggerCounts tracks what the trigger has done with samples since startup.
type TriggerCounts struct {
	Gameplay int
	Attract  int
	Invalid  int
	Cleared  int
}

// Trigger combines a sample source and a debounce window into the
// "is the gate triggered" decision. It is owned by the main loop.
//
// Only GAMEPLAY and ATTRACT samples reach the window. INVALID samples are
// counted and discarded, so noise neither fills the window nor pushes valid
// history out of it. The Window itself stores whatever it is given.
type Trigger struct {
	source   SampleSource
	window   *Window
	logger   *slog.Logger
	override func() bool

	lastMode Mode
	counts   TriggerCounts
}

// NewTrigger creates a trigger reading samples from source.
// A nil logger discards diagnostics.
func NewTrigger(source SampleSource, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Trigger{
		source: source,
		window: NewWindow(),
		logger: logger,
	}
}

// SetOverride installs a function that forces the trigger on while it returns true
// (the bench test button).
func (t *Trigger) SetOverride(fn func() bool) {
	t.override = fn
}

// Poll ages out stale history, records any new valid sample and returns
// whether the signal is currently asserted.
// Poll must run at least once per wrap of the Timestamp clock; see Window.AgeOut.
func (t *Trigger) Poll(now Timestamp) bool {
	if oldest, ok := t.window.Oldest(); ok && t.window.AgeOut(now) {
		t.counts.Cleared++
		t.logger.Info("clearing pulses after stale timeout",
			"now", uint32(now), "oldest_falling", uint32(oldest.Falling), "elapsed_ms", now.Sub(oldest.Falling))
	}

	if s, ok := t.source.Take(); ok {
		t.admit(s)
	}

	if t.override != nil && t.override() {
		return true
	}
	return t.window.Asserted(now)
}

func (t *Trigger) admit(s Sample) {
	mode := s.Mode()
	switch mode {
	case ModeGameplay, ModeAttract:
		if mode == ModeGameplay {
			t.counts.Gameplay++
		} else {
			t.counts.Attract++
		}
		t.lastMode = mode
		t.window.Record(s)
		t.logger.Debug("sol21 pulse", "mode", string(mode), "width_ms", s.Width(),
			"rising", uint32(s.Rising), "falling", uint32(s.Falling))
	default:
		t.counts.Invalid++
		t.logger.Info("ignoring invalid pulse", "width_ms", s.Width())
	}
}

// LastMode returns the mode of the most recently recorded valid sample,
// or "" if none has been seen.
func (t *Trigger) LastMode() Mode {
	return t.lastMode
}

// Buffered returns the number of samples in the debounce window.
func (t *Trigger) Buffered() int {
	return t.window.Len()
}

// Counts returns a copy of the trigger counters.
func (t *Trigger) Counts() TriggerCounts {
	return t.counts
}
