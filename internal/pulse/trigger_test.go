package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed pushes one pulse of the given width, falling at the given time, through the capture.
func feed(c *Capture, falling Timestamp, width uint32) {
	c.OnEdge(Rising, falling-Timestamp(width))
	c.OnEdge(Falling, falling)
}

func TestTriggerAssertsAfterThreeValidPulses(t *testing.T) {
	c := NewCapture()
	tr := NewTrigger(c, nil)

	for i, at := range []Timestamp{100, 200, 300} {
		feed(c, at, 50)
		got := tr.Poll(at)
		if i < 2 {
			assert.False(t, got, "pulse %d", i)
		} else {
			assert.True(t, got, "pulse %d", i)
		}
	}
	assert.Equal(t, ModeGameplay, tr.LastMode())
	assert.Equal(t, 3, tr.Counts().Gameplay)
	assert.Equal(t, 3, tr.Buffered())
}

func TestTriggerDiscardsInvalidPulses(t *testing.T) {
	c := NewCapture()
	tr := NewTrigger(c, nil)

	for _, at := range []Timestamp{100, 200, 300, 400} {
		feed(c, at, 90)
		assert.False(t, tr.Poll(at))
	}
	assert.Equal(t, 0, tr.Buffered())
	assert.Equal(t, 4, tr.Counts().Invalid)
	assert.Equal(t, Mode(""), tr.LastMode())
}

func TestTriggerMixedModesStillAssert(t *testing.T) {
	// The window only checks fullness and freshness, not mode agreement.
	c := NewCapture()
	tr := NewTrigger(c, nil)

	feed(c, 100, 50)
	tr.Poll(100)
	feed(c, 400, 131)
	tr.Poll(400)
	feed(c, 500, 50)
	assert.True(t, tr.Poll(500))
	assert.Equal(t, ModeGameplay, tr.LastMode())
}

func TestTriggerDropsWhenPulsesStop(t *testing.T) {
	c := NewCapture()
	tr := NewTrigger(c, nil)

	for _, at := range []Timestamp{100, 362, 624} {
		feed(c, at, 131)
		tr.Poll(at)
	}
	assert.True(t, tr.Poll(624+1047))
	assert.False(t, tr.Poll(624+1048))

	// Oldest sample goes stale after 3s and the window is cleared.
	assert.False(t, tr.Poll(100+3001))
	assert.Equal(t, 0, tr.Buffered())
	assert.Equal(t, 1, tr.Counts().Cleared)
}

func TestTriggerOverride(t *testing.T) {
	c := NewCapture()
	tr := NewTrigger(c, nil)

	held := false
	tr.SetOverride(func() bool { return held })

	assert.False(t, tr.Poll(0))
	held = true
	assert.True(t, tr.Poll(10))
	held = false
	assert.False(t, tr.Poll(20))
}

func TestTriggerStaysAssertedWhenSampleLandsAfterNow(t *testing.T) {
	c := NewCapture()
	tr := NewTrigger(c, nil)

	for _, at := range []Timestamp{960, 1060, 1160} {
		feed(c, at, 50)
		tr.Poll(at)
	}
	require.True(t, tr.Poll(1160))

	// The edge source stamped this falling edge one tick after the loop read its clock.
	feed(c, 1201, 50)
	assert.True(t, tr.Poll(1200), "on-time pulse must keep the trigger asserted")
	assert.Equal(t, 3, tr.Buffered())
	assert.Equal(t, 0, tr.Counts().Cleared)
	assert.True(t, tr.Poll(1201))
}
