// Package pulse turns SOL21 edge timestamps into a debounced "gate triggered" signal.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected as a wrapping millisecond Timestamp.
package pulse

// Timestamp is a reading of a wrapping millisecond clock.
// Compare timestamps only through Sub; absolute values are meaningless after a wrap.
type Timestamp uint32

// Sub returns the milliseconds elapsed from earlier to t, using unsigned
// arithmetic so the result stays correct across a clock wrap.
func (t Timestamp) Sub(earlier Timestamp) uint32 {
	return uint32(t - earlier)
}

// Before reports whether t is earlier than u, treating differences of less
// than half the clock range as ordered.
func (t Timestamp) Before(u Timestamp) bool {
	return int32(t-u) < 0
}

// Mode is the operating mode encoded by a pulse width.
type Mode string

const (
	ModeGameplay Mode = "GAMEPLAY"
	ModeAttract  Mode = "ATTRACT"
	ModeInvalid  Mode = "INVALID"
)

// Pulse width windows in milliseconds. Both bounds are exclusive.
// Game-play lamp effect is a 100ms period, attract mode 262ms, both at 50% duty.
const (
	gameplayMin = 40
	gameplayMax = 60
	attractMin  = 121
	attractMax  = 141
)

// Edge is a transition of the sensed line.
type Edge int

const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	if e == Rising {
		return "RISING"
	}
	return "FALLING"
}

// Sample is one completed pulse: a rising edge followed by a falling edge.
type Sample struct {
	Rising  Timestamp
	Falling Timestamp
}

// Width returns the high time of the pulse in milliseconds.
func (s Sample) Width() uint32 {
	return s.Falling.Sub(s.Rising)
}

// Mode classifies the sample by its width.
func (s Sample) Mode() Mode {
	return Classify(s.Width())
}

// Classify maps a pulse width to a Mode. Widths outside both windows,
// including the window bounds themselves, are ModeInvalid.
func Classify(width uint32) Mode {
	switch {
	case width > gameplayMin && width < gameplayMax:
		return ModeGameplay
	case width > attractMin && width < attractMax:
		return ModeAttract
	default:
		return ModeInvalid
	}
}
