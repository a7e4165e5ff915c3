// Package dial contains the ring dialing state machine: a simulated indicator
// sweeps the ring, alternating direction after each chevron lock, and must travel
// at least half a revolution before it may recognize the next chevron.
package dial

const (
	// RingSize is the number of addressable ring positions.
	RingSize = 75

	// ChevronCount is the number of chevrons locked in one dialing run.
	ChevronCount = 7

	// MinDwell is the travel required since the last lock (or start) before a
	// chevron can be recognized.
	MinDwell = RingSize / 2
)

// Landmarks holds the ring position of each chevron, spaced on odd
// fourteenths of the ring.
var Landmarks = [ChevronCount]int{5, 15, 26, 37, 47, 58, 68}

// LockOrder is the order in which chevrons are dialed.
var LockOrder = [ChevronCount]int{4, 5, 6, 0, 1, 2, 3}

// Direction is the spin direction of the dial.
type Direction string

const (
	Clockwise        Direction = "CLOCKWISE"
	CounterClockwise Direction = "COUNTERCLOCKWISE"
)

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

// Controller tracks the dial position, spin direction, chevrons locked so far
// and travel since the last lock. Not safe for concurrent use.
type Controller struct {
	position  int
	direction Direction
	locked    int
	dwell     int
}

// NewController returns a controller at position 0 spinning clockwise with nothing locked.
func NewController() *Controller {
	c := &Controller{}
	c.Reset()
	return c
}

// Reset returns the controller to its start state.
func (c *Controller) Reset() {
	c.position = 0
	c.direction = Clockwise
	c.locked = 0
	c.dwell = 0
}

// Advance moves the dial one position in the current direction.
// Clockwise counts up and counter-clockwise counts down; both wrap.
func (c *Controller) Advance() {
	if c.direction == Clockwise {
		c.position = (c.position + 1) % RingSize
	} else {
		c.position = (c.position + RingSize - 1) % RingSize
	}
	c.dwell++
}

// AtLandmark reports whether the dial is on the next chevron to lock.
// It never reports true before MinDwell advances since the last recognized
// chevron, and never once all chevrons are locked. A true result restarts the dwell count.
func (c *Controller) AtLandmark() bool {
	if c.locked >= ChevronCount {
		return false
	}
	if c.dwell < MinDwell {
		return false
	}
	if c.position != Landmarks[LockOrder[c.locked]] {
		return false
	}
	c.dwell = 0
	return true
}

// Lock marks the next chevron as locked. It saturates at ChevronCount.
func (c *Controller) Lock() {
	if c.locked < ChevronCount {
		c.locked++
	}
}

// FlipDirection reverses the spin direction.
func (c *Controller) FlipDirection() {
	c.direction = c.direction.Opposite()
}

// Position returns the current ring position.
func (c *Controller) Position() int {
	return c.position
}

// Direction returns the current spin direction.
func (c *Controller) Direction() Direction {
	return c.direction
}

// Locked returns the number of chevrons locked so far.
func (c *Controller) Locked() int {
	return c.locked
}

// Dwell returns the advances since the last recognized chevron.
func (c *Controller) Dwell() int {
	return c.dwell
}

// Done reports whether every chevron is locked.
func (c *Controller) Done() bool {
	return c.locked >= ChevronCount
}

// Target returns the chevron index and ring position being hunted.
// ok is false once every chevron is locked.
func (c *Controller) Target() (chevron, position int, ok bool) {
	if c.Done() {
		return 0, 0, false
	}
	chevron = LockOrder[c.locked]
	return chevron, Landmarks[chevron], true
}

// LockedChevrons returns the chevron indices locked so far, in lock order.
func (c *Controller) LockedChevrons() []int {
	out := make([]int, c.locked)
	copy(out, LockOrder[:c.locked])
	return out
}
