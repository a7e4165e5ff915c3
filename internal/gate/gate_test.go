package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gate-dialer/internal/display"
)

func TestRequestDialCoalesces(t *testing.T) {
	h := newHarness(false)
	g := New(h.config())

	assert.True(t, g.RequestDial())
	assert.False(t, g.RequestDial(), "second request while one is pending is dropped")
}

func TestGateRequestedDialWithoutTrigger(t *testing.T) {
	h := newHarness(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := h.config()
	cfg.OnPhase = func(pc PhaseChange) {
		h.phases = append(h.phases, pc.Phase)
		if pc.Phase == PhaseClosed && pc.Session == 1 {
			cancel()
		}
	}
	g := New(cfg)
	require.True(t, g.RequestDial())

	require.NoError(t, g.Run(ctx))

	assert.Equal(t, []Phase{PhaseClosed, PhaseDialing, PhaseCollapsing, PhaseClosed}, h.phases)
	assert.Equal(t, 1, g.Sessions())
	require.Len(t, h.events, 7)
	assert.Equal(t, OutcomeWillNotEngage, h.events[6].Outcome)
}

func TestGateTriggeredCycle(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var openAt, collapseAt time.Duration
	cfg := h.config()
	cfg.SelfTest = true
	cfg.OnPhase = func(pc PhaseChange) {
		h.phases = append(h.phases, pc.Phase)
		switch pc.Phase {
		case PhaseOpen:
			// The machine stops pulsing; the gate should stay open until the
			// window goes stale and then collapse.
			h.pulsing = false
			openAt = time.Duration(h.clk.Now()) * time.Millisecond
		case PhaseCollapsing:
			collapseAt = time.Duration(h.clk.Now()) * time.Millisecond
		case PhaseClosed:
			if pc.Session == 1 {
				cancel()
			}
		}
	}
	g := New(cfg)

	require.NoError(t, g.Run(ctx))

	assert.Equal(t, []Phase{PhaseClosed, PhaseDialing, PhaseOpen, PhaseCollapsing, PhaseClosed}, h.phases)
	require.Len(t, h.events, 7)
	assert.Equal(t, OutcomeLocked, h.events[6].Outcome)

	held := collapseAt - openAt
	assert.Greater(t, held, time.Duration(0))
	assert.LessOrEqual(t, held, 1100*time.Millisecond, "open phase ends once the last pulse is no longer fresh")

	frames := h.recorder.Frames()
	require.NotEmpty(t, frames)
	assert.Equal(t, display.White, frames[0][display.LED(1)], "self test frame comes first")
}

func TestGateIdleRendersClosed(t *testing.T) {
	h := newHarness(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := 0
	cfg := h.config()
	cfg.Renderer = display.RendererFunc(func(f display.Frame) {
		frames++
		assert.Equal(t, display.DarkSlateGray, f[display.LED(0)])
		if frames == 20 {
			cancel()
		}
	})
	g := New(cfg)

	require.NoError(t, g.Run(ctx))
	assert.Equal(t, 0, g.Sessions())
	assert.Equal(t, PhaseClosed, g.Phase())
}
