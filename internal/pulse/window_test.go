package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAt(falling Timestamp) Sample {
	return Sample{Rising: falling - 50, Falling: falling}
}

func TestWindowEmpty(t *testing.T) {
	w := NewWindow()

	assert.Equal(t, 0, w.Len())
	assert.Nil(t, w.Samples())
	assert.False(t, w.Asserted(0))
	assert.False(t, w.AgeOut(100000))

	_, ok := w.Oldest()
	assert.False(t, ok)
	_, ok = w.Newest()
	assert.False(t, ok)
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow()
	a, b, c, d := sampleAt(100), sampleAt(200), sampleAt(300), sampleAt(400)

	w.Record(a)
	w.Record(b)
	w.Record(c)
	assert.Equal(t, []Sample{a, b, c}, w.Samples())

	w.Record(d)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []Sample{b, c, d}, w.Samples())

	oldest, _ := w.Oldest()
	newest, _ := w.Newest()
	assert.Equal(t, b, oldest)
	assert.Equal(t, d, newest)
}

func TestWindowNeverExceedsCapacity(t *testing.T) {
	w := NewWindow()
	for i := 0; i < 50; i++ {
		w.Record(sampleAt(Timestamp(i * 100)))
		assert.LessOrEqual(t, w.Len(), WindowCapacity)
	}
	assert.Equal(t, []Sample{sampleAt(4700), sampleAt(4800), sampleAt(4900)}, w.Samples())
}

func TestWindowNotAssertedUntilFull(t *testing.T) {
	w := NewWindow()

	w.Record(sampleAt(1000))
	assert.False(t, w.Asserted(1000))
	w.Record(sampleAt(1100))
	assert.False(t, w.Asserted(1100))
	w.Record(sampleAt(1200))
	assert.True(t, w.Asserted(1200))
}

func TestWindowAssertedFreshnessBoundary(t *testing.T) {
	w := NewWindow()
	w.Record(sampleAt(800))
	w.Record(sampleAt(900))
	w.Record(sampleAt(1000))

	const f = 1000
	assert.True(t, w.Asserted(f+1000))
	assert.True(t, w.Asserted(f+1047))
	assert.False(t, w.Asserted(f+1048), "freshness bound is exclusive")
	assert.False(t, w.Asserted(f+2000))
}

func TestWindowAgeOutBoundary(t *testing.T) {
	w := NewWindow()
	w.Record(sampleAt(1000))
	w.Record(sampleAt(1100))

	assert.False(t, w.AgeOut(1000+3000), "exactly 3000ms must not clear")
	assert.Equal(t, 2, w.Len())

	assert.True(t, w.AgeOut(1000+3001))
	assert.Equal(t, 0, w.Len())
	assert.False(t, w.Asserted(1000+3001))
}

func TestWindowAgeOutUsesOldest(t *testing.T) {
	w := NewWindow()
	w.Record(sampleAt(1000))
	w.Record(sampleAt(3500))
	w.Record(sampleAt(3900))

	// Newest is fresh but the oldest is stale: the whole window goes.
	assert.True(t, w.AgeOut(4001))
	assert.Equal(t, 0, w.Len())
}

func TestWindowAcrossClockWrap(t *testing.T) {
	w := NewWindow()
	base := Timestamp(0xFFFFFF80)
	w.Record(sampleAt(base))
	w.Record(sampleAt(base + 100))
	w.Record(sampleAt(base + 200)) // wraps past zero

	now := base + 300
	require.Less(t, uint32(now), uint32(base), "test precondition: clock has wrapped")
	assert.True(t, w.Asserted(now))
	assert.False(t, w.AgeOut(now))

	assert.True(t, w.AgeOut(base+3001))
}

func TestWindowSampleAfterNow(t *testing.T) {
	w := NewWindow()
	w.Record(sampleAt(5001))

	assert.False(t, w.AgeOut(5000), "a sample newer than now is not stale")
	assert.Equal(t, 1, w.Len())

	w.Record(sampleAt(5101))
	w.Record(sampleAt(5201))
	assert.True(t, w.Asserted(5200))
	assert.True(t, w.Asserted(5200+FreshWithinMs-1))
	assert.False(t, w.Asserted(5201+FreshWithinMs))
}

func TestWindowClearThenRecord(t *testing.T) {
	w := NewWindow()
	w.Record(sampleAt(100))
	w.Record(sampleAt(200))
	w.Clear()
	w.Record(sampleAt(300))

	assert.Equal(t, []Sample{sampleAt(300)}, w.Samples())
}
