package pulse

// Debounce window parameters.
const (
	// WindowCapacity is the number of consecutive pulses required before the signal is trusted.
	WindowCapacity = 3

	// StaleAfterMs clears the window once the oldest pulse is this old.
	StaleAfterMs = 3000

	// FreshWithinMs is how recent the newest pulse must be for the signal to count
	// as still pulsing: roughly four periods of the slower attract-mode pulse.
	FreshWithinMs = 1048
)

// Window is a fixed-capacity FIFO of recent samples. The oldest sample is
// evicted when a new one arrives at capacity.
//
// Samples are stored raw: Window does not check that they are valid or share a mode.
// Not safe for concurrent use; the main loop owns it.
type Window struct {
	buf   [WindowCapacity]Sample
	head  int // next write position
	count int
}

// NewWindow returns an empty window.
func NewWindow() *Window {
	return &Window{}
}

// Record appends a sample, evicting the oldest if the window is full.
func (w *Window) Record(s Sample) {
	w.buf[w.head] = s
	w.head = (w.head + 1) % WindowCapacity
	if w.count < WindowCapacity {
		w.count++
	}
}

// AgeOut clears the window when the oldest sample fell more than StaleAfterMs
// before now. It reports whether the window was cleared.
//
// AgeOut must be called at least once per wrap of the Timestamp clock
// (2^32 ms) or a stale sample can read as fresh after the wrap.
func (w *Window) AgeOut(now Timestamp) bool {
	oldest, ok := w.Oldest()
	if !ok {
		return false
	}
	if now.Before(oldest.Falling) {
		return false
	}
	if now.Sub(oldest.Falling) > StaleAfterMs {
		w.Clear()
		return true
	}
	return false
}

// Asserted reports whether the window is full and the newest sample fell
// less than FreshWithinMs before now. A sample stamped after now counts as
// fresh: the edge source can deliver one between reading the clock and polling.
func (w *Window) Asserted(now Timestamp) bool {
	if w.count < WindowCapacity {
		return false
	}
	newest, _ := w.Newest()
	if now.Before(newest.Falling) {
		return true
	}
	return now.Sub(newest.Falling) < FreshWithinMs
}

// Oldest returns the least recently recorded sample.
func (w *Window) Oldest() (Sample, bool) {
	if w.count == 0 {
		return Sample{}, false
	}
	start := (w.head - w.count + WindowCapacity) % WindowCapacity
	return w.buf[start], true
}

// Newest returns the most recently recorded sample.
func (w *Window) Newest() (Sample, bool) {
	if w.count == 0 {
		return Sample{}, false
	}
	return w.buf[(w.head-1+WindowCapacity)%WindowCapacity], true
}

// Samples returns the buffered samples, oldest first.
func (w *Window) Samples() []Sample {
	if w.count == 0 {
		return nil
	}
	result := make([]Sample, w.count)
	start := (w.head - w.count + WindowCapacity) % WindowCapacity
	for i := 0; i < w.count; i++ {
		result[i] = w.buf[(start+i)%WindowCapacity]
	}
	return result
}

// Len returns the number of buffered samples.
func (w *Window) Len() int {
	return w.count
}

// Clear empties the window.
func (w *Window) Clear() {
	w.head = 0
	w.count = 0
}
