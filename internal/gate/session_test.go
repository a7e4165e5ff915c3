package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gate-dialer/internal/dial"
	"github.com/sweeney/gate-dialer/internal/pulse"
)

// Steps needed to dial all seven chevrons from position 0 clockwise.
const fullDialSteps = 47 + 64 + 85 + 63 + 85 + 64 + 86

func TestRunSequenceTriggerAsserted(t *testing.T) {
	h := newHarness(true)
	s := NewSession(h.config(), 1)

	res, err := s.RunSequence(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Events, dial.ChevronCount)
	for i, ev := range res.Events[:dial.ChevronCount-1] {
		assert.Equal(t, OutcomeEncoded, ev.Outcome, "chevron %d", i+1)
		assert.Equal(t, i+1, ev.Number)
	}
	final := res.Events[dial.ChevronCount-1]
	assert.Equal(t, OutcomeLocked, final.Outcome)
	assert.Equal(t, dial.ChevronCount, final.Number)

	assert.True(t, res.Engaged)
	assert.Equal(t, dial.LockOrder[:], res.Locked)
	assert.Equal(t, dial.ChevronCount, s.Controller().Locked())
	assert.Equal(t, dial.CounterClockwise, res.Direction, "seven flips leave the dial reversed")
	assert.Equal(t, fullDialSteps, res.Steps)
	assert.Equal(t, fullDialSteps, h.steps)
	assert.Equal(t, fullDialSteps, h.recorder.Len())
	assert.Equal(t, res.Events, h.events)
}

func TestRunSequenceTriggerNeverAsserted(t *testing.T) {
	h := newHarness(false)
	s := NewSession(h.config(), 1)

	res, err := s.RunSequence(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Events, dial.ChevronCount)
	for i, ev := range res.Events[:dial.ChevronCount-1] {
		assert.Equal(t, OutcomeEncoded, ev.Outcome, "intermediate chevron %d is encoded regardless", i+1)
	}
	assert.Equal(t, OutcomeWillNotEngage, res.Events[dial.ChevronCount-1].Outcome)
	assert.False(t, res.Engaged)
	assert.Equal(t, dial.ChevronCount, s.Controller().Locked())
}

func TestRunSequenceEventsFollowLockOrder(t *testing.T) {
	h := newHarness(true)
	res, err := NewSession(h.config(), 3).RunSequence(context.Background())
	require.NoError(t, err)

	for i, ev := range res.Events {
		assert.Equal(t, 3, ev.Session)
		assert.Equal(t, dial.LockOrder[i], ev.Chevron)
		assert.Equal(t, dial.Landmarks[dial.LockOrder[i]], ev.Position)
	}
	// Direction is reported before the flip that follows each lock.
	assert.Equal(t, dial.Clockwise, res.Events[0].Direction)
	assert.Equal(t, dial.CounterClockwise, res.Events[1].Direction)
}

func TestRunSequenceOnlyFinalChevronIsGated(t *testing.T) {
	// Asserted only on the poll that follows the final landmark.
	var polls int
	h := newHarness(false)
	cfg := h.config()
	cfg.Trigger = pollerFunc(func(pulse.Timestamp) bool {
		polls++
		return polls == fullDialSteps+1
	})

	res, err := NewSession(cfg, 1).RunSequence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocked, res.Events[dial.ChevronCount-1].Outcome)
	assert.True(t, res.Engaged)
}

func TestRunSequenceCancelled(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := h.config()
	cfg.OnChevron = func(ev ChevronEvent) {
		if ev.Number == 2 {
			cancel()
		}
	}

	res, err := NewSession(cfg, 1).RunSequence(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Events, 2)
	assert.Equal(t, []int{4, 5}, res.Locked)
	assert.False(t, res.Engaged)
}

func TestRunSequenceResetsBetweenRuns(t *testing.T) {
	h := newHarness(true)
	s := NewSession(h.config(), 1)

	first, err := s.RunSequence(context.Background())
	require.NoError(t, err)
	second, err := s.RunSequence(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Steps, second.Steps)
	assert.Len(t, second.Events, dial.ChevronCount)
}
