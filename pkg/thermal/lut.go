// Package thermal builds and applies the 3-D color lookup table that
// maps luminance to the thermal rainbow palette.
package thermal

import (
	"github.com/kindredlens/go-wildeye/pkg/frame"
)

// DefaultSize is the cube side length used by the live pipeline.
const DefaultSize = 64

// LUT is an immutable N x N x N cube over the three input channels.
// Each cell holds an opaque RGB triple. It is built once and shared
// read-only across frames.
type LUT struct {
	size  int
	table []float32 // size^3 * 4, RGBA, r fastest
}

// Build computes the full cube for the given side length. Pure and
// deterministic; the result never changes after construction.
func Build(size int) *LUT {
	l := &LUT{
		size:  size,
		table: make([]float32, size*size*size*4),
	}
	inv := 1 / float64(size-1)
	i := 0
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				rf := float64(r) * inv
				gf := float64(g) * inv
				bf := float64(b) * inv
				lum := frame.LumaR*rf + frame.LumaG*gf + frame.LumaB*bf
				or, og, ob := Gradient(lum)
				l.table[i] = float32(or)
				l.table[i+1] = float32(og)
				l.table[i+2] = float32(ob)
				l.table[i+3] = 1
				i += 4
			}
		}
	}
	return l
}

// Size returns the cube side length.
func (l *LUT) Size() int { return l.size }

// Gradient maps a luminance value to the thermal palette. Stops run
// deep blue through blue, cyan, green, yellow and orange to red; each
// segment interpolates two channels linearly and holds the third.
func Gradient(lum float64) (r, g, b float64) {
	switch {
	case lum < 0:
		return 0, 0, 0.3
	case lum < 0.15:
		s := lum / 0.15
		return 0, 0, 0.3 + 0.7*s
	case lum < 0.30:
		s := (lum - 0.15) / 0.15
		return 0, 0.9 * s, 1
	case lum < 0.45:
		s := (lum - 0.30) / 0.15
		return 0, 0.9 + 0.1*s, 1 - s
	case lum < 0.60:
		s := (lum - 0.45) / 0.15
		return s, 1, 0
	case lum < 0.75:
		s := (lum - 0.60) / 0.15
		return 1, 1 - 0.4*s, 0
	case lum <= 1:
		s := (lum - 0.75) / 0.25
		return 1, 0.6 - 0.6*s, 0
	default:
		return 1, 0, 0
	}
}

// SampleRGB looks up an input color with trilinear interpolation
// across the eight surrounding cells.
func (l *LUT) SampleRGB(r, g, b float32) (or, og, ob float32) {
	n := l.size
	fr := frame.Clamp(r) * float32(n-1)
	fg := frame.Clamp(g) * float32(n-1)
	fb := frame.Clamp(b) * float32(n-1)

	r0, r1, tr := cell(fr, n)
	g0, g1, tg := cell(fg, n)
	b0, b1, tb := cell(fb, n)

	var out [3]float32
	for c := 0; c < 3; c++ {
		c000 := l.at(r0, g0, b0, c)
		c100 := l.at(r1, g0, b0, c)
		c010 := l.at(r0, g1, b0, c)
		c110 := l.at(r1, g1, b0, c)
		c001 := l.at(r0, g0, b1, c)
		c101 := l.at(r1, g0, b1, c)
		c011 := l.at(r0, g1, b1, c)
		c111 := l.at(r1, g1, b1, c)

		c00 := c000 + (c100-c000)*tr
		c10 := c010 + (c110-c010)*tr
		c01 := c001 + (c101-c001)*tr
		c11 := c011 + (c111-c011)*tr

		c0 := c00 + (c10-c00)*tg
		c1 := c01 + (c11-c01)*tg
		out[c] = c0 + (c1-c0)*tb
	}
	return out[0], out[1], out[2]
}

// Sample looks up the cube along the gray diagonal, i.e. the palette
// color for a pixel of the given luminance.
func (l *LUT) Sample(lum float32) (r, g, b float32) {
	return l.SampleRGB(lum, lum, lum)
}

// Apply maps every pixel of the frame through the cube. Alpha is
// carried over untouched.
func (l *LUT) Apply(f *frame.Frame) *frame.Frame {
	out := frame.New(f.W, f.H)
	out.PTS = f.PTS
	for i := 0; i < len(f.Pix); i += 4 {
		r, g, b := l.SampleRGB(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
		out.Pix[i] = r
		out.Pix[i+1] = g
		out.Pix[i+2] = b
		out.Pix[i+3] = f.Pix[i+3]
	}
	return out
}

func (l *LUT) at(r, g, b, c int) float32 {
	return l.table[((b*l.size+g)*l.size+r)*4+c]
}

func cell(v float32, n int) (lo, hi int, t float32) {
	lo = int(v)
	if lo >= n-1 {
		return n - 1, n - 1, 0
	}
	return lo, lo + 1, v - float32(lo)
}
