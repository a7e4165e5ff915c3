package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureRisingThenFalling(t *testing.T) {
	c := NewCapture()

	_, ok := c.OnEdge(Rising, 100)
	assert.False(t, ok)
	assert.True(t, c.Pending())

	s, ok := c.OnEdge(Falling, 150)
	require.True(t, ok)
	assert.Equal(t, Sample{Rising: 100, Falling: 150}, s)
	assert.False(t, c.Pending())

	taken, ok := c.Take()
	require.True(t, ok)
	assert.Equal(t, s, taken)

	_, ok = c.Take()
	assert.False(t, ok, "sample must only be taken once")
}

func TestCaptureLeadingFallingIgnored(t *testing.T) {
	c := NewCapture()

	_, ok := c.OnEdge(Falling, 10)
	assert.False(t, ok)
	assert.False(t, c.Pending())

	_, ok = c.Take()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Spurious)
}

func TestCaptureDuplicateFallingIgnored(t *testing.T) {
	c := NewCapture()

	c.OnEdge(Rising, 0)
	_, ok := c.OnEdge(Falling, 50)
	require.True(t, ok)

	_, ok = c.OnEdge(Falling, 60)
	assert.False(t, ok, "second falling edge has no rising edge to pair with")
	assert.False(t, c.Pending())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Completed)
	assert.Equal(t, uint64(1), stats.Spurious)
}

func TestCaptureSecondRisingReplacesFirst(t *testing.T) {
	c := NewCapture()

	c.OnEdge(Rising, 0)
	c.OnEdge(Rising, 200)
	s, ok := c.OnEdge(Falling, 250)
	require.True(t, ok)
	assert.Equal(t, Timestamp(200), s.Rising)
}

func TestCaptureUnconsumedSampleOverwritten(t *testing.T) {
	c := NewCapture()

	c.OnEdge(Rising, 0)
	c.OnEdge(Falling, 50)
	c.OnEdge(Rising, 100)
	c.OnEdge(Falling, 230)

	s, ok := c.Take()
	require.True(t, ok)
	assert.Equal(t, Sample{Rising: 100, Falling: 230}, s)
	assert.Equal(t, uint64(1), c.Stats().Overwritten)
}

func TestCaptureRisingAtZeroTimestamp(t *testing.T) {
	c := NewCapture()

	c.OnEdge(Rising, 0)
	assert.True(t, c.Pending(), "a rising edge at t=0 must still count as pending")

	s, ok := c.OnEdge(Falling, 45)
	require.True(t, ok)
	assert.Equal(t, uint32(45), s.Width())
}

func TestCaptureRisingAtMaxTimestamp(t *testing.T) {
	c := NewCapture()

	c.OnEdge(Rising, Timestamp(0xFFFFFFFF))
	s, ok := c.OnEdge(Falling, 49)
	require.True(t, ok)
	assert.Equal(t, Timestamp(0xFFFFFFFF), s.Rising)
	assert.Equal(t, uint32(50), s.Width())
}

// Each produced pulse is exactly 50ms wide, so any torn read would show up
// as a different width.
func TestCaptureConcurrentHandoff(t *testing.T) {
	c := NewCapture()
	const pulses = 20000

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < pulses; i++ {
			at := Timestamp(i * 100)
			c.OnEdge(Rising, at)
			c.OnEdge(Falling, at+50)
		}
	}()

	var taken, torn uint64
	check := func(s Sample) {
		taken++
		if s.Width() != 50 {
			torn++
		}
	}

	for running := true; running; {
		select {
		case <-finished:
			running = false
		default:
		}
		if s, ok := c.Take(); ok {
			check(s)
		}
	}
	if s, ok := c.Take(); ok {
		check(s)
	}

	stats := c.Stats()
	assert.Zero(t, torn, "torn samples observed")
	assert.Equal(t, uint64(pulses), stats.Completed)
	assert.Equal(t, stats.Completed, taken+stats.Overwritten)
}
