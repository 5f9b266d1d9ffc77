package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/kindredlens/go-wildeye/internal/log"
	"github.com/kindredlens/go-wildeye/pkg/frame"
)

// digitalMaxZoom is what the capture surface reports as its zoom
// limit. Digital zoom degrades fast past this.
const digitalMaxZoom = 4.0

// CaptureDevice reads frames from an OpenCV video capture and serves
// as both the pipeline's frame source and the controller's device
// surface.
type CaptureDevice struct {
	cfg Config

	mu     sync.Mutex
	cap    *gocv.VideoCapture
	facing Facing
	zoom   float64

	// retired holds captures swapped out by Reconfigure. The read loop
	// may still have a read in flight on the most recent of them, so
	// they are closed by the loop itself, never by the switch worker.
	retired []io.Closer
}

// Open opens the preferred facing (back first, then front).
func Open(cfg Config) (*CaptureDevice, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}
	d := &CaptureDevice{cfg: cfg, zoom: MinZoom}

	facing := FacingBack
	if cfg.BackIndex < 0 {
		facing = FacingFront
	}
	cap, err := d.open(facing)
	if err != nil {
		return nil, err
	}
	d.cap = cap
	d.facing = facing
	return d, nil
}

// Facing returns the facing currently being captured.
func (d *CaptureDevice) Facing() Facing {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.facing
}

// MaxZoom reports the device zoom limit.
func (d *CaptureDevice) MaxZoom() float64 { return digitalMaxZoom }

// SetZoom stores the digital zoom factor applied to subsequent frames.
func (d *CaptureDevice) SetZoom(factor float64) error {
	d.mu.Lock()
	d.zoom = factor
	d.mu.Unlock()
	return nil
}

// Reconfigure swaps the capture to the requested facing. The new
// device is opened and probed before the old one is released, so a
// failure leaves the previous capture serving untouched and frames
// delivered mid-switch still come from a fully configured device. The
// old capture is retired rather than closed here: the read loop may be
// blocked in Read on it, and it releases retirees once that read
// returns.
func (d *CaptureDevice) Reconfigure(facing Facing) error {
	next, err := d.open(facing)
	if err != nil {
		return err
	}

	d.mu.Lock()
	if d.cap != nil {
		d.retired = append(d.retired, d.cap)
	}
	d.cap = next
	d.facing = facing
	d.mu.Unlock()
	return nil
}

// collectRetired closes captures the read loop no longer references.
// Must be called with d.mu held, between reads.
func (d *CaptureDevice) collectRetired() {
	for _, old := range d.retired {
		old.Close()
	}
	d.retired = nil
}

func (d *CaptureDevice) open(facing Facing) (*gocv.VideoCapture, error) {
	index := d.cfg.BackIndex
	if facing == FacingFront {
		index = d.cfg.FrontIndex
	}
	if index < 0 {
		return nil, fmt.Errorf("no %s device configured", facing)
	}
	cap, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, err
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(d.cfg.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(d.cfg.Height))
	cap.Set(gocv.VideoCaptureFPS, float64(d.cfg.Framerate))
	return cap, nil
}

// readBackoff paces retries when the device stops delivering, so a
// pulled cable does not turn the loop into a busy spin.
const readBackoff = 20 * time.Millisecond

// Run reads frames until ctx is cancelled, delivering them one at a
// time on this goroutine: the source never has two frames in flight.
// Frames that fail to decode are dropped silently.
func (d *CaptureDevice) Run(ctx context.Context, deliver func(*frame.Frame)) error {
	mat := gocv.NewMat()
	defer mat.Close()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Retirees are collected in the same critical section as the
		// capture copy, so a retired device is only closed once no
		// read can be in flight on it.
		d.mu.Lock()
		d.collectRetired()
		cap := d.cap
		zoom := d.zoom
		d.mu.Unlock()

		if !cap.Read(&mat) || mat.Empty() {
			time.Sleep(readBackoff)
			continue
		}

		f := d.matToFrame(&mat, zoom)
		if f == nil {
			continue
		}
		f.PTS = time.Since(start)
		deliver(f)
	}
}

// Close releases the capture device and any pending retirees. Only
// call after the read loop has stopped.
func (d *CaptureDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.collectRetired()
	if d.cap == nil {
		return nil
	}
	err := d.cap.Close()
	d.cap = nil
	return err
}

// matToFrame applies digital zoom (center crop plus upscale) and
// converts the BGR mat to a normalized frame.
func (d *CaptureDevice) matToFrame(mat *gocv.Mat, zoom float64) *frame.Frame {
	w, h := mat.Cols(), mat.Rows()
	if w == 0 || h == 0 {
		return nil
	}

	if zoom > MinZoom {
		cw := int(float64(w) / zoom)
		ch := int(float64(h) / zoom)
		x := (w - cw) / 2
		y := (h - ch) / 2
		region := mat.Region(image.Rect(x, y, x+cw, y+ch))
		zoomed := gocv.NewMat()
		gocv.Resize(region, &zoomed, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
		region.Close()
		defer zoomed.Close()
		return frame.FromBGR(zoomed.ToBytes(), w, h)
	}

	buf := mat.ToBytes()
	if len(buf) < w*h*3 {
		log.Debug("short capture buffer, frame dropped", "len", len(buf))
		return nil
	}
	return frame.FromBGR(buf, w, h)
}
