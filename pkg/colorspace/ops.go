// Package colorspace implements the numeric primitives the vision
// filter chains are composed of. Every op is a pure function over
// frames: deterministic, no hidden state, output channels clamped to
// [0, 1] so the result of one op is always a valid input to the next.
package colorspace

import (
	"math"

	"github.com/kindredlens/go-wildeye/pkg/frame"
)

// Matrix is a 4x5 affine color transform. Each output channel is the
// dot product of a row with [R, G, B, A, 1]. Rows are ordered R, G, B, A.
type Matrix [4][5]float32

// Identity returns the matrix that maps every frame to itself.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
	}
}

// ApplyColorMatrix transforms every pixel by m, clamping each output
// channel to [0, 1].
func ApplyColorMatrix(f *frame.Frame, m Matrix) *frame.Frame {
	out := frame.New(f.W, f.H)
	out.PTS = f.PTS
	for i := 0; i < len(f.Pix); i += 4 {
		r, g, b, a := f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]
		for c := 0; c < 4; c++ {
			v := m[c][0]*r + m[c][1]*g + m[c][2]*b + m[c][3]*a + m[c][4]
			out.Pix[i+c] = frame.Clamp(v)
		}
	}
	return out
}

// Blend linearly combines two frames per pixel. The weights need not
// sum to one; out-of-range results clamp. The frames must have the
// same dimensions (programmer error otherwise).
func Blend(a *frame.Frame, wa float32, b *frame.Frame, wb float32) *frame.Frame {
	if a.W != b.W || a.H != b.H {
		panic("colorspace: blend dimensions differ")
	}
	out := frame.New(a.W, a.H)
	out.PTS = a.PTS
	for i := range out.Pix {
		out.Pix[i] = frame.Clamp(wa*a.Pix[i] + wb*b.Pix[i])
	}
	return out
}

// GaussianBlur applies a separable Gaussian blur with the given radius
// in pixels (the radius acts as sigma). Radius <= 0 is a no-op and
// returns the input unchanged.
func GaussianBlur(f *frame.Frame, radius float64) *frame.Frame {
	if radius <= 0 {
		return f
	}
	kernel := gaussianKernel(radius)
	tmp := frame.New(f.W, f.H)
	out := frame.New(f.W, f.H)
	out.PTS = f.PTS
	convolveH(f, tmp, kernel)
	convolveV(tmp, out, kernel)
	return out
}

// UnsharpMask sharpens by adding back the difference against a blurred
// copy: out = f + intensity*(f - blur(f, radius)), clamped.
func UnsharpMask(f *frame.Frame, radius, intensity float64) *frame.Frame {
	if radius <= 0 || intensity == 0 {
		return f
	}
	blurred := GaussianBlur(f, radius)
	out := frame.New(f.W, f.H)
	out.PTS = f.PTS
	k := float32(intensity)
	for i := range out.Pix {
		out.Pix[i] = frame.Clamp(f.Pix[i] + k*(f.Pix[i]-blurred.Pix[i]))
	}
	return out
}

// lumaSharpenRadius is the fixed blur radius used when sharpening the
// luminance channel.
const lumaSharpenRadius = 1.7

// SharpenLuminance sharpens the luminance channel only, adding the
// same delta to R, G and B so chroma is preserved and no color
// fringing appears.
func SharpenLuminance(f *frame.Frame, sharpness float64) *frame.Frame {
	if sharpness == 0 {
		return f
	}
	n := f.W * f.H
	luma := make([]float32, n)
	for p, i := 0, 0; p < n; p, i = p+1, i+4 {
		luma[p] = frame.Luminance(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
	}
	blurred := blurPlane(luma, f.W, f.H, lumaSharpenRadius)
	out := frame.New(f.W, f.H)
	out.PTS = f.PTS
	k := float32(sharpness)
	for p, i := 0, 0; p < n; p, i = p+1, i+4 {
		d := k * (luma[p] - blurred[p])
		out.Pix[i] = frame.Clamp(f.Pix[i] + d)
		out.Pix[i+1] = frame.Clamp(f.Pix[i+1] + d)
		out.Pix[i+2] = frame.Clamp(f.Pix[i+2] + d)
		out.Pix[i+3] = f.Pix[i+3]
	}
	return out
}

// HighlightShadowAdjust remaps tones per channel: shadowAmount lifts
// dark values (0 = untouched), highlightAmount compresses values above
// mid-gray (1 = untouched). Both curves are monotone and keep black
// and white fixed points stable.
func HighlightShadowAdjust(f *frame.Frame, highlightAmount, shadowAmount float64) *frame.Frame {
	hi := float32(highlightAmount)
	sh := float32(shadowAmount)
	out := frame.New(f.W, f.H)
	out.PTS = f.PTS
	for i := 0; i < len(f.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = toneRemap(f.Pix[i+c], hi, sh)
		}
		out.Pix[i+3] = f.Pix[i+3]
	}
	return out
}

func toneRemap(v, hi, sh float32) float32 {
	// Shadow lift peaks in the lower mid-tones, fixed at 0 and 1.
	v = v + sh*v*(1-v)*(1-v)
	// Highlight compression: quadratic rolloff above mid-gray.
	if v > 0.5 {
		e := v - 0.5
		v = 0.5 + e*(1-(1-hi)*e)
	}
	return frame.Clamp(v)
}

// ColorControls applies a multiplicative saturation scale, a
// multiplicative contrast scale around mid-gray, and an additive
// brightness offset, in that order.
func ColorControls(f *frame.Frame, saturation, contrast, brightness float64) *frame.Frame {
	sat := float32(saturation)
	con := float32(contrast)
	bri := float32(brightness)
	out := frame.New(f.W, f.H)
	out.PTS = f.PTS
	for i := 0; i < len(f.Pix); i += 4 {
		r, g, b := f.Pix[i], f.Pix[i+1], f.Pix[i+2]
		l := frame.Luminance(r, g, b)
		r = l + (r-l)*sat
		g = l + (g-l)*sat
		b = l + (b-l)*sat
		out.Pix[i] = frame.Clamp((r-0.5)*con + 0.5 + bri)
		out.Pix[i+1] = frame.Clamp((g-0.5)*con + 0.5 + bri)
		out.Pix[i+2] = frame.Clamp((b-0.5)*con + 0.5 + bri)
		out.Pix[i+3] = f.Pix[i+3]
	}
	return out
}

// gaussianKernel builds a normalized 1-D kernel for the given sigma.
func gaussianKernel(sigma float64) []float32 {
	half := int(math.Ceil(2 * sigma))
	if half < 1 {
		half = 1
	}
	kernel := make([]float32, 2*half+1)
	var sum float64
	for i := -half; i <= half; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+half] = float32(w)
		sum += w
	}
	for i := range kernel {
		kernel[i] = float32(float64(kernel[i]) / sum)
	}
	return kernel
}

// convolveH runs the kernel across rows with edge replication.
func convolveH(src, dst *frame.Frame, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			var r, g, b, a float32
			for k := -half; k <= half; k++ {
				xx := clampInt(x+k, 0, src.W-1)
				i := src.Index(xx, y)
				w := kernel[k+half]
				r += w * src.Pix[i]
				g += w * src.Pix[i+1]
				b += w * src.Pix[i+2]
				a += w * src.Pix[i+3]
			}
			dst.Set(x, y, r, g, b, a)
		}
	}
}

// convolveV runs the kernel down columns with edge replication. This
// is the final pass, so it clamps: the normalized kernel weights carry
// float32 rounding error and can sum to slightly more than one.
func convolveV(src, dst *frame.Frame, kernel []float32) {
	half := len(kernel) / 2
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			var r, g, b, a float32
			for k := -half; k <= half; k++ {
				yy := clampInt(y+k, 0, src.H-1)
				i := src.Index(x, yy)
				w := kernel[k+half]
				r += w * src.Pix[i]
				g += w * src.Pix[i+1]
				b += w * src.Pix[i+2]
				a += w * src.Pix[i+3]
			}
			dst.Set(x, y, frame.Clamp(r), frame.Clamp(g), frame.Clamp(b), frame.Clamp(a))
		}
	}
}

// blurPlane blurs a single-channel plane with the same separable
// kernel used for full frames.
func blurPlane(plane []float32, w, h int, radius float64) []float32 {
	kernel := gaussianKernel(radius)
	half := len(kernel) / 2
	tmp := make([]float32, len(plane))
	out := make([]float32, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float32
			for k := -half; k <= half; k++ {
				xx := clampInt(x+k, 0, w-1)
				v += kernel[k+half] * plane[y*w+xx]
			}
			tmp[y*w+x] = v
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float32
			for k := -half; k <= half; k++ {
				yy := clampInt(y+k, 0, h-1)
				v += kernel[k+half] * tmp[yy*w+x]
			}
			out[y*w+x] = frame.Clamp(v)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
