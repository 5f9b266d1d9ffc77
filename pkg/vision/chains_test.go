package vision

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindredlens/go-wildeye/pkg/colorspace"
	"github.com/kindredlens/go-wildeye/pkg/frame"
)

func adversarialFrames() map[string]*frame.Frame {
	rng := rand.New(rand.NewSource(7))
	random := frame.New(16, 12)
	for i := range random.Pix {
		random.Pix[i] = rng.Float32()
	}
	return map[string]*frame.Frame{
		"all-zero": frame.New(16, 12),
		"all-max":  frame.Uniform(16, 12, 1, 1, 1),
		"random":   random,
	}
}

func TestChainsPreserveDimensionsAndRange(t *testing.T) {
	for name, f := range adversarialFrames() {
		for _, mode := range Modes() {
			t.Run(mode.String()+"/"+name, func(t *testing.T) {
				out := Transform(mode, f)

				require.Equal(t, f.W, out.W)
				require.Equal(t, f.H, out.H)
				require.Equal(t, f.PTS, out.PTS)
				for i, v := range out.Pix {
					if v < 0 || v > 1 {
						t.Fatalf("channel %d out of range: %v", i, v)
					}
				}
			})
		}
	}
}

func TestDichromatMutesRedGreen(t *testing.T) {
	red := frame.Uniform(2, 2, 1, 0, 0)
	out := Transform(ModeDichromat, red)

	r, g, b, a := out.At(0, 0)
	assert.InDelta(t, 0.625, r, 1e-5)
	assert.InDelta(t, 0.375, g, 1e-5)
	assert.InDelta(t, 0, b, 1e-5)
	assert.Equal(t, float32(1), a)

	blue := frame.Uniform(2, 2, 0, 0, 1)
	out = Transform(ModeDichromat, blue)
	_, g, b, _ = out.At(0, 0)
	assert.InDelta(t, 0.3, g, 1e-5)
	assert.InDelta(t, 0.7, b, 1e-5)
}

func TestThermalChainProducesPalette(t *testing.T) {
	// A hot (bright) uniform frame should land deep in the red end of
	// the palette; a cold one in the blues.
	hot := Transform(ModeThermal, frame.Uniform(8, 8, 0.95, 0.95, 0.95))
	r, _, b, _ := hot.At(4, 4)
	if r < 0.8 {
		t.Errorf("bright input should map hot (red), got r=%v", r)
	}
	if b > 0.2 {
		t.Errorf("bright input should not be blue, got b=%v", b)
	}

	cold := Transform(ModeThermal, frame.Uniform(8, 8, 0.05, 0.05, 0.05))
	r, _, b, _ = cold.At(4, 4)
	if b < 0.3 {
		t.Errorf("dark input should map cold (blue), got b=%v", b)
	}
	if r > 0.2 {
		t.Errorf("dark input should not be red, got r=%v", r)
	}
}

func TestAcuityReducesToToneTransform(t *testing.T) {
	// With all sharpening intensities zeroed the acuity chain is just
	// contrast followed by the highlight/shadow curve. For uniform
	// luminance 0.45:
	//   contrast 1.08: (0.45-0.5)*1.08 + 0.5            = 0.446
	//   shadow 0.3:    0.446 + 0.3*0.446*(1-0.446)^2    = 0.48707
	//   highlight:     below mid-gray, untouched
	p := defaultAcuity
	p.MicroIntensity = 0
	p.LumaSharpness = 0
	p.FineIntensity = 0

	f := frame.Uniform(4, 4, 0.45, 0.45, 0.45)
	out := acuityChain(f, p)

	r, g, b, _ := out.At(1, 1)
	assert.InDelta(t, 0.48707, r, 1e-3)
	assert.InDelta(t, 0.48707, g, 1e-3)
	assert.InDelta(t, 0.48707, b, 1e-3)
}

func TestAcuityDefaultChainOnUniformFrame(t *testing.T) {
	// On a uniform frame sharpening finds no edges, so the full chain
	// collapses to the same tone transform.
	f := frame.Uniform(6, 6, 0.45, 0.45, 0.45)
	out := Transform(ModeAcuity, f)

	r, _, _, _ := out.At(3, 3)
	assert.InDelta(t, 0.48707, r, 1e-3)
}

func TestUVPatternBoostsBlueGreen(t *testing.T) {
	f := frame.Uniform(8, 8, 0.6, 0.4, 0.5)
	out := Transform(ModeUVPattern, f)

	r, _, b, _ := out.At(4, 4)
	inR, _, inB, _ := f.At(4, 4)
	if r-b >= inR-inB {
		t.Errorf("red/blue balance should shift toward blue: in %v, out %v", inR-inB, r-b)
	}
}

func TestThermalLUTBuiltOnce(t *testing.T) {
	a := ThermalLUT()
	b := ThermalLUT()
	if a != b {
		t.Error("thermal LUT should be cached, got two instances")
	}
	require.Equal(t, 64, a.Size())
}

func TestModeParseStringRoundTrip(t *testing.T) {
	for _, m := range Modes() {
		parsed, err := Parse(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
		assert.True(t, m.Valid())
	}

	_, err := Parse("xray")
	assert.Error(t, err)
	assert.False(t, Mode(99).Valid())
}

func TestChainsUseColorspacePrimitives(t *testing.T) {
	// The dichromat chain is a single matrix; applying the same matrix
	// directly must give the identical result.
	f := frame.Uniform(3, 3, 0.3, 0.6, 0.9)
	direct := colorspace.ApplyColorMatrix(f, dichromatMatrix)
	viaChain := Transform(ModeDichromat, f)
	require.Equal(t, direct.Pix, viaChain.Pix)
}
