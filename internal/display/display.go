// Package display describes what the gate's LED strip shows. It builds frames
// and hands them to a Renderer; driving the physical strip is the renderer's job.
package display

import (
	"fmt"
	"sync"

	"github.com/sweeney/gate-dialer/internal/dial"
)

// Strip layout. The ring occupies LEDs FirstLED..LastLED (1-based) of the strip.
const (
	NumLEDs  = 96
	FirstLED = 12
	LastLED  = 86
)

// ringOffset is the 0-based strip index of ring position 0.
const ringOffset = FirstLED - 1

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale dims the color by n/256.
func (c Color) Scale(n uint8) Color {
	return Color{
		R: uint8(uint16(c.R) * uint16(n) >> 8),
		G: uint8(uint16(c.G) * uint16(n) >> 8),
		B: uint8(uint16(c.B) * uint16(n) >> 8),
	}
}

// Named colors used by the gate looks.
var (
	Black         = Color{}
	White         = Color{0xFF, 0xFF, 0xFF}
	Red           = Color{0xFF, 0x00, 0x00}
	DarkRed       = Color{0x8B, 0x00, 0x00}
	Yellow        = Color{0xFF, 0xFF, 0x00}
	Blue          = Color{0x00, 0x00, 0xFF}
	DarkSlateGray = Color{0x2F, 0x4F, 0x4F}
)

// Frame is one full strip of LED colors.
type Frame [NumLEDs]Color

// Fill sets every LED to c.
func (f *Frame) Fill(c Color) {
	for i := range f {
		f[i] = c
	}
}

// Fade dims every LED by n/256.
func (f *Frame) Fade(n uint8) {
	for i := range f {
		f[i] = f[i].Scale(n)
	}
}

// Set colors one LED, ignoring indexes outside the strip.
func (f *Frame) Set(led int, c Color) {
	if led < 0 || led >= NumLEDs {
		return
	}
	f[led] = c
}

// Hex returns every LED as #rrggbb.
func (f *Frame) Hex() []string {
	out := make([]string, NumLEDs)
	for i, c := range f {
		out[i] = c.Hex()
	}
	return out
}

// LED returns the strip index of a ring position.
func LED(position int) int {
	return ringOffset + position
}

// ChevronLED returns the strip index of a chevron.
func ChevronLED(chevron int) int {
	return LED(dial.Landmarks[chevron])
}

// Renderer presents frames. Render is fire-and-forget: the gate never reads anything back.
type Renderer interface {
	Render(f Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f Frame)

// Render calls fn(f).
func (fn RendererFunc) Render(f Frame) {
	fn(f)
}

// Discard drops every frame.
var Discard Renderer = RendererFunc(func(Frame) {})

// Multi fans each frame out to every renderer in order.
func Multi(renderers ...Renderer) Renderer {
	rs := make([]Renderer, 0, len(renderers))
	for _, r := range renderers {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return RendererFunc(func(f Frame) {
		for _, r := range rs {
			r.Render(f)
		}
	})
}

// Recorder keeps every rendered frame for test assertions. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Render records the frame.
func (r *Recorder) Render(f Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// Last returns the most recent frame.
func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Len returns the number of recorded frames.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
