package vision

import (
	"sync"

	"github.com/kindredlens/go-wildeye/pkg/colorspace"
	"github.com/kindredlens/go-wildeye/pkg/frame"
	"github.com/kindredlens/go-wildeye/pkg/thermal"
)

// The thermal cube is expensive to fill, so it is built once per
// process and shared read-only by every frame and every caller.
var (
	lutOnce sync.Once
	lut     *thermal.LUT
)

// ThermalLUT returns the shared thermal lookup table, building it on
// first use.
func ThermalLUT() *thermal.LUT {
	lutOnce.Do(func() {
		lut = thermal.Build(thermal.DefaultSize)
	})
	return lut
}

// Transform runs the filter chain for the given mode. The output frame
// always has the input's dimensions and timestamp, with every channel
// inside [0, 1]. Unknown modes fall back to the dichromat chain rather
// than dropping the frame.
func Transform(mode Mode, f *frame.Frame) *frame.Frame {
	switch mode {
	case ModeUVPattern:
		return uvPatternChain(f, defaultUVPattern)
	case ModeThermal:
		return thermalChain(f, defaultThermal)
	case ModeAcuity:
		return acuityChain(f, defaultAcuity)
	default:
		return dichromatChain(f)
	}
}

// dichromatMatrix mutes the red/green axis while preserving the
// blue/yellow response.
var dichromatMatrix = colorspace.Matrix{
	{0.625, 0, 0, 0, 0},
	{0.375, 0.3, 0.3, 0, 0},
	{0, 0, 0.7, 0, 0},
	{0, 0, 0, 1, 0},
}

func dichromatChain(f *frame.Frame) *frame.Frame {
	return colorspace.ApplyColorMatrix(f, dichromatMatrix)
}

// uvShiftMatrix suppresses red and pushes the response toward
// blue-green, where UV-reflective pattern contrast lives.
var uvShiftMatrix = colorspace.Matrix{
	{0.1, 0.2, 0, 0, 0},
	{0, 0.9, 0.3, 0, 0},
	{0.2, 0.1, 1.0, 0, 0},
	{0, 0, 0, 1, 0},
}

type uvPatternParams struct {
	ShiftWeight     float32
	OriginalWeight  float32
	CoarseRadius    float64
	CoarseIntensity float64
	FineRadius      float64
	FineIntensity   float64
	LumaSharpness   float64
	Highlight       float64
	Shadow          float64
	Saturation      float64
	Contrast        float64
}

var defaultUVPattern = uvPatternParams{
	ShiftWeight:     0.7,
	OriginalWeight:  0.3,
	CoarseRadius:    6.0,
	CoarseIntensity: 2.0,
	FineRadius:      2.5,
	FineIntensity:   1.8,
	LumaSharpness:   1.2,
	Highlight:       0.8,
	Shadow:          0.6,
	Saturation:      1.35,
	Contrast:        1.15,
}

func uvPatternChain(f *frame.Frame, p uvPatternParams) *frame.Frame {
	shifted := colorspace.ApplyColorMatrix(f, uvShiftMatrix)
	out := colorspace.Blend(shifted, p.ShiftWeight, f, p.OriginalWeight)
	out = colorspace.UnsharpMask(out, p.CoarseRadius, p.CoarseIntensity)
	out = colorspace.UnsharpMask(out, p.FineRadius, p.FineIntensity)
	out = colorspace.SharpenLuminance(out, p.LumaSharpness)
	out = colorspace.HighlightShadowAdjust(out, p.Highlight, p.Shadow)
	return colorspace.ColorControls(out, p.Saturation, p.Contrast, 0)
}

type thermalParams struct {
	DiffusionRadius float64
	PreContrast     float64
	Saturation      float64
	Contrast        float64
}

var defaultThermal = thermalParams{
	DiffusionRadius: 8.0,
	PreContrast:     1.2,
	Saturation:      1.4,
	Contrast:        1.05,
}

func thermalChain(f *frame.Frame, p thermalParams) *frame.Frame {
	// Blur first to emulate sensor diffusion, then collapse to a
	// luminance image before the palette lookup.
	out := colorspace.GaussianBlur(f, p.DiffusionRadius)
	out = colorspace.ColorControls(out, 0, p.PreContrast, 0)
	out = ThermalLUT().Apply(out)
	return colorspace.ColorControls(out, p.Saturation, p.Contrast, 0)
}

type acuityParams struct {
	Contrast       float64
	MicroRadius    float64
	MicroIntensity float64
	LumaSharpness  float64
	FineRadius     float64
	FineIntensity  float64
	Highlight      float64
	Shadow         float64
}

var defaultAcuity = acuityParams{
	Contrast:       1.08,
	MicroRadius:    0.8,
	MicroIntensity: 0.9,
	LumaSharpness:  0.6,
	FineRadius:     0.4,
	FineIntensity:  0.7,
	Highlight:      0.95,
	Shadow:         0.3,
}

func acuityChain(f *frame.Frame, p acuityParams) *frame.Frame {
	out := colorspace.ColorControls(f, 1.0, p.Contrast, 0)
	out = colorspace.UnsharpMask(out, p.MicroRadius, p.MicroIntensity)
	out = colorspace.SharpenLuminance(out, p.LumaSharpness)
	out = colorspace.UnsharpMask(out, p.FineRadius, p.FineIntensity)
	return colorspace.HighlightShadowAdjust(out, p.Highlight, p.Shadow)
}
