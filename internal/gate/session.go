package gate

import (
	"context"

	"github.com/sweeney/gate-dialer/internal/dial"
	"github.com/sweeney/gate-dialer/internal/display"
)

// Session is one dialing run over a fresh dial controller.
type Session struct {
	cfg  Config
	id   int
	ctrl *dial.Controller
}

// NewSession creates a dialing run. cfg.Trigger and cfg.Clock are required.
func NewSession(cfg Config, id int) *Session {
	return &Session{
		cfg:  cfg.withDefaults(),
		id:   id,
		ctrl: dial.NewController(),
	}
}

// Controller exposes the session's dial state.
func (s *Session) Controller() *dial.Controller {
	return s.ctrl
}

// RunSequence dials every chevron in lock order. For each chevron it polls the
// trigger, renders, advances the dial and paces one frame until the dial lands
// on the chevron, then reports the outcome, locks it and reverses direction.
//
// Chevrons 1 to 6 are always encoded. Only the final chevron depends on the
// trigger: it locks if the trigger is asserted at that moment and otherwise
// will not engage.
//
// ctx is checked between frames only. On cancellation the partial result is
// returned with ctx.Err().
func (s *Session) RunSequence(ctx context.Context) (Result, error) {
	s.ctrl.Reset()
	res := Result{Session: s.id}
	last := dial.ChevronCount - 1

	s.cfg.Logger.Info("dialing", "session", s.id)

	for i := 0; i < dial.ChevronCount; i++ {
		chevron, target, _ := s.ctrl.Target()
		s.cfg.Logger.Debug("hunting chevron", "number", i+1, "chevron", chevron, "led", display.LED(target))

		for {
			if err := ctx.Err(); err != nil {
				s.finish(&res)
				return res, err
			}

			asserted := s.cfg.Trigger.Poll(s.cfg.Clock.Now())
			s.cfg.Renderer.Render(s.cfg.Painter.Dialing(s.ctrl))
			s.report(asserted)

			s.ctrl.Advance()
			res.Steps++
			s.cfg.Sleep(s.cfg.FrameInterval)

			if s.ctrl.AtLandmark() {
				break
			}
		}

		outcome := OutcomeEncoded
		if i == last {
			if s.cfg.Trigger.Poll(s.cfg.Clock.Now()) {
				outcome = OutcomeLocked
			} else {
				outcome = OutcomeWillNotEngage
			}
		}

		ev := ChevronEvent{
			Time:      s.cfg.Now(),
			Session:   s.id,
			Number:    i + 1,
			Chevron:   chevron,
			Position:  s.ctrl.Position(),
			Direction: s.ctrl.Direction(),
			Outcome:   outcome,
		}
		res.Events = append(res.Events, ev)
		s.cfg.Logger.Info("chevron "+outcomeVerb(outcome), "number", ev.Number, "chevron", chevron, "position", ev.Position)
		if s.cfg.OnChevron != nil {
			s.cfg.OnChevron(ev)
		}

		s.ctrl.Lock()
		s.ctrl.FlipDirection()
	}

	s.finish(&res)
	res.Engaged = res.Events[last].Outcome == OutcomeLocked
	return res, nil
}

func (s *Session) finish(res *Result) {
	res.Locked = s.ctrl.LockedChevrons()
	res.Direction = s.ctrl.Direction()
}

func (s *Session) report(asserted bool) {
	if s.cfg.OnStep == nil {
		return
	}
	s.cfg.OnStep(Progress{
		Session:   s.id,
		Position:  s.ctrl.Position(),
		Direction: s.ctrl.Direction(),
		Locked:    s.ctrl.LockedChevrons(),
		Asserted:  asserted,
	})
}

func outcomeVerb(o Outcome) string {
	switch o {
	case OutcomeLocked:
		return "is locked"
	case OutcomeWillNotEngage:
		return "will not engage"
	default:
		return "encoded"
	}
}
