// Package pipeline contains the per-frame orchestrator that sits
// between the capture source and the sinks: it runs the active vision
// filter chain on each incoming frame, publishes the result to the
// preview, and feeds the recorder and still-capture sinks.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kindredlens/go-wildeye/internal/log"
	"github.com/kindredlens/go-wildeye/pkg/debug"
	"github.com/kindredlens/go-wildeye/pkg/frame"
	"github.com/kindredlens/go-wildeye/pkg/vision"
)

// Source delivers frames strictly one at a time via the callback; the
// next frame is not read until the callback returns. Run blocks until
// ctx is done.
type Source interface {
	Run(ctx context.Context, deliver func(*frame.Frame)) error
}

// PreviewSink receives every filtered frame, last-writer-wins. Publish
// must not block the caller.
type PreviewSink interface {
	Publish(f *frame.Frame)
}

// CaptureSink receives the raw/filtered pair for a still-capture
// request, exactly once per request.
type CaptureSink interface {
	Deliver(raw, filtered *frame.Frame)
}

// Recorder is the slice of the recording state machine the processor
// drives each frame.
type Recorder interface {
	Start(w, h int) error
	Submit(f *frame.Frame, pts time.Duration)
	Stop() error
	Active() bool
}

// CameraSwitcher is the device-control surface for facing switches.
type CameraSwitcher interface {
	SwitchFacing() error
}

// Processor is the per-frame orchestrator. HandleFrame runs on the
// capture goroutine; all request methods may be called from any other
// goroutine. Requests are latched flags consumed exactly once via
// compare-and-clear, never re-checked shared booleans.
type Processor struct {
	preview PreviewSink
	capture CaptureSink
	rec     Recorder
	cam     CameraSwitcher

	mode atomic.Int32

	// Native resolution, latched from the first good frame.
	resOnce sync.Once
	nativeW atomic.Int32
	nativeH atomic.Int32

	captureReq atomic.Bool
	startReq   atomic.Bool
	stopReq    atomic.Bool
	switchReq  atomic.Bool

	// switching prevents overlapping facing switches; a switch in
	// progress is allowed to race with frame delivery.
	switching atomic.Bool
}

// Options carries the collaborators for a processor. Preview, capture,
// recorder and camera may each be nil; the corresponding step becomes
// a no-op.
type Options struct {
	Preview  PreviewSink
	Capture  CaptureSink
	Recorder Recorder
	Camera   CameraSwitcher
	Mode     vision.Mode
}

// New builds a processor in the given starting mode.
func New(opts Options) *Processor {
	p := &Processor{
		preview: opts.Preview,
		capture: opts.Capture,
		rec:     opts.Recorder,
		cam:     opts.Camera,
	}
	p.mode.Store(int32(opts.Mode))
	return p
}

// Mode returns the mode that will run on the next frame.
func (p *Processor) Mode() vision.Mode {
	return vision.Mode(p.mode.Load())
}

// SetMode selects the chain for subsequent frames. Switching while a
// recording is active is allowed and yields a mixed-mode file.
func (p *Processor) SetMode(m vision.Mode) {
	if !m.Valid() {
		log.Warn("ignoring invalid mode", "mode", int32(m))
		return
	}
	p.mode.Store(int32(m))
	log.Info("vision mode set", "mode", m.String())
}

// RequestStillCapture latches a still-capture request, consumed by the
// next processed frame.
func (p *Processor) RequestStillCapture() { p.captureReq.Store(true) }

// RequestRecordingStart latches a start-recording request.
func (p *Processor) RequestRecordingStart() { p.startReq.Store(true) }

// RequestRecordingStop latches a stop-recording request.
func (p *Processor) RequestRecordingStop() { p.stopReq.Store(true) }

// RequestCameraSwitch latches a facing-switch request.
func (p *Processor) RequestCameraSwitch() { p.switchReq.Store(true) }

// NativeResolution returns the source resolution latched from the
// first frame, or (0, 0) before any frame has arrived.
func (p *Processor) NativeResolution() (w, h int) {
	return int(p.nativeW.Load()), int(p.nativeH.Load())
}

// HandleFrame processes one raw frame. Every downstream step is fire
// and forget: a failure in one sink never aborts delivery to the
// others, and a bad frame is dropped without retry.
func (p *Processor) HandleFrame(raw *frame.Frame) {
	if raw == nil || raw.W <= 0 || raw.H <= 0 || len(raw.Pix) < raw.W*raw.H*4 {
		debug.FrameLog("malformed frame dropped\n")
		return
	}

	p.resOnce.Do(func() {
		p.nativeW.Store(int32(raw.W))
		p.nativeH.Store(int32(raw.H))
		log.Info("native resolution latched", "width", raw.W, "height", raw.H)
	})

	started := time.Now()
	mode := p.Mode()
	filtered := vision.Transform(mode, raw)
	debug.FrameLog("frame %v filtered via %s in %v\n", raw.PTS, mode, time.Since(started))

	if p.preview != nil {
		p.preview.Publish(filtered)
	}

	// Facing switches run on their own worker so a slow device
	// reconfiguration never stalls the next incoming frame.
	if p.cam != nil && p.switchReq.CompareAndSwap(true, false) {
		if p.switching.CompareAndSwap(false, true) {
			go func() {
				defer p.switching.Store(false)
				if err := p.cam.SwitchFacing(); err != nil {
					log.Warn("camera switch dropped", "err", err)
				}
			}()
		}
	}

	if p.rec != nil {
		if p.startReq.CompareAndSwap(true, false) && !p.rec.Active() {
			w, h := p.NativeResolution()
			if err := p.rec.Start(w, h); err != nil {
				log.Warn("recording start failed", "err", err)
			}
		}
		if p.stopReq.CompareAndSwap(true, false) && p.rec.Active() {
			if err := p.rec.Stop(); err != nil {
				log.Warn("recording stop failed", "err", err)
			}
		}
	}

	if p.capture != nil && p.captureReq.CompareAndSwap(true, false) {
		p.capture.Deliver(raw, filtered)
	}

	if p.rec != nil && p.rec.Active() {
		p.rec.Submit(filtered, raw.PTS)
	}
}

// Run attaches the processor to a source and blocks until ctx is done.
func (p *Processor) Run(ctx context.Context, src Source) error {
	return src.Run(ctx, p.HandleFrame)
}
