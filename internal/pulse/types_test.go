package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyWindows(t *testing.T) {
	tests := []struct {
		width uint32
		want  Mode
	}{
		{0, ModeInvalid},
		{39, ModeInvalid},
		{40, ModeInvalid},
		{41, ModeGameplay},
		{50, ModeGameplay},
		{59, ModeGameplay},
		{60, ModeInvalid},
		{100, ModeInvalid},
		{121, ModeInvalid},
		{122, ModeAttract},
		{131, ModeAttract},
		{140, ModeAttract},
		{141, ModeInvalid},
		{5000, ModeInvalid},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.width), "width %d", tt.width)
	}
}

func TestClassifyExhaustive(t *testing.T) {
	for w := uint32(0); w < 1000; w++ {
		got := Classify(w)
		switch {
		case w > 40 && w < 60:
			assert.Equal(t, ModeGameplay, got, "width %d", w)
		case w > 121 && w < 141:
			assert.Equal(t, ModeAttract, got, "width %d", w)
		default:
			assert.Equal(t, ModeInvalid, got, "width %d", w)
		}
	}
}

func TestSampleWidth(t *testing.T) {
	s := Sample{Rising: 1000, Falling: 1050}
	assert.Equal(t, uint32(50), s.Width())
	assert.Equal(t, ModeGameplay, s.Mode())
}

func TestSampleWidthAcrossWrap(t *testing.T) {
	// Rising just before the clock wraps, falling just after.
	s := Sample{Rising: Timestamp(0xFFFFFFF0), Falling: Timestamp(115)}
	assert.Equal(t, uint32(131), s.Width())
	assert.Equal(t, ModeAttract, s.Mode())
}

func TestTimestampSub(t *testing.T) {
	assert.Equal(t, uint32(0), Timestamp(7).Sub(7))
	assert.Equal(t, uint32(3001), Timestamp(5001).Sub(2000))
	assert.Equal(t, uint32(2), Timestamp(0).Sub(Timestamp(0xFFFFFFFE)))
}

func TestTimestampBefore(t *testing.T) {
	assert.True(t, Timestamp(1200).Before(1201))
	assert.False(t, Timestamp(1201).Before(1200))
	assert.False(t, Timestamp(7).Before(7))
	// Ordering holds across the wrap.
	assert.True(t, Timestamp(0xFFFFFFFE).Before(3))
	assert.False(t, Timestamp(3).Before(0xFFFFFFFE))
}

func TestEdgeString(t *testing.T) {
	assert.Equal(t, "RISING", Rising.String())
	assert.Equal(t, "FALLING", Falling.String())
}
