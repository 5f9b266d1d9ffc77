// Package frame defines the image sample exchanged between the capture
// source, the vision filter chains, and the downstream sinks.
//
// Pixels are stored as interleaved RGBA float32 values normalized to
// [0, 1]. Every operation in the pipeline consumes and produces this
// layout, so chains compose without format conversion.
package frame

import (
	"time"
)

// Rec.709 luma weights, shared by every op that needs a luminance read.
const (
	LumaR = 0.2126
	LumaG = 0.7152
	LumaB = 0.0722
)

// Frame is one decoded image sample plus its capture timestamp.
//
// PTS is monotonic and lives in the clock domain of the capture source
// (duration since the source started delivering). The processor owns a
// frame for the duration of one pass; sinks that keep a reference past
// the pass must Clone first.
type Frame struct {
	W, H int
	Pix  []float32 // len == W*H*4, RGBA interleaved
	PTS  time.Duration
}

// New allocates a zeroed (transparent black) frame.
func New(w, h int) *Frame {
	return &Frame{
		W:   w,
		H:   h,
		Pix: make([]float32, w*h*4),
	}
}

// Uniform returns an opaque frame with every pixel set to (r, g, b).
func Uniform(w, h int, r, g, b float32) *Frame {
	f := New(w, h)
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i] = r
		f.Pix[i+1] = g
		f.Pix[i+2] = b
		f.Pix[i+3] = 1
	}
	return f
}

// Clone returns an independent copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{W: f.W, H: f.H, PTS: f.PTS, Pix: make([]float32, len(f.Pix))}
	copy(out.Pix, f.Pix)
	return out
}

// Index returns the offset of pixel (x, y) in Pix.
func (f *Frame) Index(x, y int) int {
	return (y*f.W + x) * 4
}

// At returns the RGBA value of pixel (x, y).
func (f *Frame) At(x, y int) (r, g, b, a float32) {
	i := f.Index(x, y)
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]
}

// Set writes the RGBA value of pixel (x, y).
func (f *Frame) Set(x, y int, r, g, b, a float32) {
	i := f.Index(x, y)
	f.Pix[i] = r
	f.Pix[i+1] = g
	f.Pix[i+2] = b
	f.Pix[i+3] = a
}

// Luminance returns the Rec.709 luma of an RGB triple.
func Luminance(r, g, b float32) float32 {
	return LumaR*r + LumaG*g + LumaB*b
}

// Clamp forces v into [0, 1].
func Clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
