package camera

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/kindredlens/go-wildeye/pkg/frame"
)

// SyntheticDevice generates moving gradient frames so the pipeline can
// run without capture hardware. It implements the same source and
// device surfaces as CaptureDevice.
type SyntheticDevice struct {
	W, H      int
	Framerate int

	mu     sync.Mutex
	facing Facing
	zoom   float64
}

// NewSynthetic returns a generator at the given resolution.
func NewSynthetic(w, h, framerate int) *SyntheticDevice {
	return &SyntheticDevice{W: w, H: h, Framerate: framerate, zoom: MinZoom}
}

// Facing returns the simulated facing.
func (s *SyntheticDevice) Facing() Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// MaxZoom reports the simulated zoom limit.
func (s *SyntheticDevice) MaxZoom() float64 { return digitalMaxZoom }

// SetZoom stores the zoom factor.
func (s *SyntheticDevice) SetZoom(factor float64) error {
	s.mu.Lock()
	s.zoom = factor
	s.mu.Unlock()
	return nil
}

// Reconfigure flips the simulated facing; both facings always exist.
func (s *SyntheticDevice) Reconfigure(facing Facing) error {
	s.mu.Lock()
	s.facing = facing
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the generator.
func (s *SyntheticDevice) Close() error { return nil }

// Run emits frames at the configured rate until ctx is cancelled. The
// pattern is a diagonal gradient sliding over time, which exercises
// every chain with smoothly varying luminance.
func (s *SyntheticDevice) Run(ctx context.Context, deliver func(*frame.Frame)) error {
	interval := time.Second / time.Duration(s.Framerate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		t := time.Since(start)
		f := s.render(t)
		f.PTS = t
		deliver(f)
	}
}

func (s *SyntheticDevice) render(t time.Duration) *frame.Frame {
	f := frame.New(s.W, s.H)
	phase := t.Seconds() * 0.5
	i := 0
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			u := float64(x) / float64(s.W)
			v := float64(y) / float64(s.H)
			f.Pix[i] = float32(0.5 + 0.5*math.Sin(2*math.Pi*(u+phase)))
			f.Pix[i+1] = float32(v)
			f.Pix[i+2] = float32(0.5 + 0.5*math.Cos(2*math.Pi*(v+phase)))
			f.Pix[i+3] = 1
			i += 4
		}
	}
	return f
}
