package gate

import (
	"context"
	"time"
)

// Gate runs the gate forever: idle while closed, dialing when the trigger
// asserts or a dial is requested, open while the trigger stays asserted after
// the final chevron locks, then collapsing back to closed.
type Gate struct {
	cfg      Config
	requests chan struct{}
	sessions int
	phase    Phase
}

// New creates a gate. cfg.Trigger and cfg.Clock are required.
func New(cfg Config) *Gate {
	return &Gate{
		cfg:      cfg.withDefaults(),
		requests: make(chan struct{}, 1),
	}
}

// RequestDial asks the gate to dial at its next idle frame. Requests made while
// one is already pending are coalesced; the return value reports whether this
// request was queued. Safe to call from any goroutine.
func (g *Gate) RequestDial() bool {
	select {
	case g.requests <- struct{}{}:
		return true
	default:
		return false
	}
}

// Sessions returns the number of dialing runs started.
func (g *Gate) Sessions() int {
	return g.sessions
}

// Run drives the gate until ctx is cancelled. Cancellation is not an error.
func (g *Gate) Run(ctx context.Context) error {
	if g.cfg.SelfTest {
		g.cfg.Logger.Info("self test")
		g.cfg.Renderer.Render(g.cfg.Painter.SelfTest())
		g.cfg.Sleep(g.cfg.SelfTestDuration)
	}

	g.setPhase(PhaseClosed)

	for ctx.Err() == nil {
		asserted := g.cfg.Trigger.Poll(g.cfg.Clock.Now())
		g.cfg.Renderer.Render(g.cfg.Painter.Closed())

		requested := false
		select {
		case <-g.requests:
			requested = true
		default:
		}

		if asserted || requested {
			if requested {
				g.cfg.Logger.Info("dial requested")
			}
			g.cycle(ctx)
			continue
		}

		g.cfg.Sleep(g.cfg.FrameInterval)
	}
	return nil
}

// cycle runs one dial and, if the gate engages, the open and collapse phases.
func (g *Gate) cycle(ctx context.Context) {
	g.sessions++
	g.setPhase(PhaseDialing)

	res, err := NewSession(g.cfg, g.sessions).RunSequence(ctx)
	if err != nil {
		g.cfg.Logger.Info("dialing interrupted", "session", res.Session, "locked", len(res.Locked), "error", err)
		return
	}

	if res.Engaged {
		g.setPhase(PhaseOpen)
		for ctx.Err() == nil && g.cfg.Trigger.Poll(g.cfg.Clock.Now()) {
			g.cfg.Renderer.Render(g.cfg.Painter.Open(res.Locked))
			g.cfg.Sleep(g.cfg.FrameInterval)
		}
		if ctx.Err() != nil {
			return
		}
	}

	g.setPhase(PhaseCollapsing)
	g.collapse(ctx, res.Locked)
	g.setPhase(PhaseClosed)
}

func (g *Gate) collapse(ctx context.Context, locked []int) {
	start := g.cfg.Clock.Now()
	total := g.cfg.CollapseDuration
	for ctx.Err() == nil {
		elapsed := time.Duration(g.cfg.Clock.Now().Sub(start)) * time.Millisecond
		if elapsed >= total {
			return
		}
		g.cfg.Renderer.Render(g.cfg.Painter.Collapsing(locked, elapsed, total))
		// Keep the debounce window aged while the animation runs.
		g.cfg.Trigger.Poll(g.cfg.Clock.Now())
		g.cfg.Sleep(g.cfg.FrameInterval)
	}
}

func (g *Gate) setPhase(p Phase) {
	if g.phase == p {
		return
	}
	g.phase = p
	g.cfg.Logger.Info("gate phase", "phase", string(p), "session", g.sessions)
	if g.cfg.OnPhase != nil {
		g.cfg.OnPhase(PhaseChange{Time: g.cfg.Now(), Phase: p, Session: g.sessions})
	}
}

// Phase returns the current gate phase.
func (g *Gate) Phase() Phase {
	return g.phase
}
