package display

import (
	"math/rand"
	"time"

	"github.com/sweeney/gate-dialer/internal/dial"
)

// fadeStep is the per-frame dimming applied to the event horizon and collapse looks.
const fadeStep = 250

// Painter builds frames for each gate look. It keeps the state carried from one
// frame to the next (the dial trail and the fading event horizon).
// Not safe for concurrent use.
type Painter struct {
	frame    Frame
	prevDial int
	rng      *rand.Rand
}

// NewPainter returns a painter with a dark strip.
func NewPainter(seed int64) *Painter {
	return &Painter{
		prevDial: -1,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// SelfTest lights the whole ring white with every chevron red.
func (p *Painter) SelfTest() Frame {
	p.frame.Fill(Black)
	p.fillRing(White)
	for i := range dial.Landmarks {
		p.frame.Set(ChevronLED(i), Red)
	}
	return p.frame
}

// Closed shows the idle gate: a faint ring with dark chevrons.
func (p *Painter) Closed() Frame {
	p.background()
	p.prevDial = -1
	return p.frame
}

// Dialing shows the idle ring, the dial position with a one-step dark red
// trail, and every locked chevron with its halo.
func (p *Painter) Dialing(c *dial.Controller) Frame {
	p.background()

	if !c.Done() {
		led := LED(c.Position())
		if p.prevDial < 0 {
			p.prevDial = led
		}
		p.frame.Set(p.prevDial, DarkRed)
		p.frame.Set(led, Red)
		p.prevDial = led
	}

	p.drawLocked(c.LockedChevrons())
	return p.frame
}

// Open adds one random blue sparkle to the fading event horizon and redraws
// the locked chevrons. Successive calls build up the shimmer.
func (p *Painter) Open(locked []int) Frame {
	led := ringOffset + p.rng.Intn(dial.RingSize)
	p.frame.Set(led, Blue)
	p.drawLocked(locked)

	f := p.frame
	p.frame.Fade(fadeStep)
	return f
}

// Collapsing shows the chevrons going dark one by one: chevron i in lock order
// stays lit until (2i+1)/14 of the collapse duration has elapsed.
func (p *Painter) Collapsing(locked []int, elapsed, duration time.Duration) Frame {
	for i, chevron := range locked {
		color, halo := Black, Black
		if elapsed < collapseDeadline(i, duration) {
			color, halo = Red, Yellow
		}
		led := ChevronLED(chevron)
		p.frame.Set(led-1, halo)
		p.frame.Set(led, color)
		p.frame.Set(led+1, halo)
	}

	f := p.frame
	p.frame.Fade(fadeStep)
	return f
}

func collapseDeadline(i int, duration time.Duration) time.Duration {
	return duration * time.Duration(2*i+1) / (2 * dial.ChevronCount)
}

func (p *Painter) background() {
	p.frame.Fill(Black)
	p.fillRing(DarkSlateGray)
	for i := range dial.Landmarks {
		led := ChevronLED(i)
		p.frame.Set(led-1, Black)
		p.frame.Set(led, Black)
		p.frame.Set(led+1, Black)
	}
}

func (p *Painter) fillRing(c Color) {
	for pos := 0; pos < dial.RingSize; pos++ {
		p.frame.Set(LED(pos), c)
	}
}

func (p *Painter) drawLocked(locked []int) {
	for _, chevron := range locked {
		led := ChevronLED(chevron)
		p.frame.Set(led-1, Yellow)
		p.frame.Set(led, Red)
		p.frame.Set(led+1, Yellow)
	}
}
