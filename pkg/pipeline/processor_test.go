package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindredlens/go-wildeye/pkg/frame"
	"github.com/kindredlens/go-wildeye/pkg/vision"
)

type fakePreview struct {
	frames []*frame.Frame
}

func (p *fakePreview) Publish(f *frame.Frame) { p.frames = append(p.frames, f) }

type fakeCapture struct {
	pairs         int
	raw, filtered *frame.Frame
}

func (c *fakeCapture) Deliver(raw, filtered *frame.Frame) {
	c.pairs++
	c.raw, c.filtered = raw, filtered
}

type fakeRecorder struct {
	active    bool
	starts    int
	stops     int
	startW    int
	startH    int
	startErr  error
	submitted []time.Duration
}

func (r *fakeRecorder) Start(w, h int) error {
	r.starts++
	if r.startErr != nil {
		return r.startErr
	}
	r.startW, r.startH = w, h
	r.active = true
	return nil
}

func (r *fakeRecorder) Submit(_ *frame.Frame, pts time.Duration) {
	r.submitted = append(r.submitted, pts)
}

func (r *fakeRecorder) Stop() error {
	r.stops++
	r.active = false
	return nil
}

func (r *fakeRecorder) Active() bool { return r.active }

type fakeSwitcher struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (s *fakeSwitcher) SwitchFacing() error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func (s *fakeSwitcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func rawFrame(w, h int, pts time.Duration) *frame.Frame {
	f := frame.Uniform(w, h, 0.4, 0.5, 0.6)
	f.PTS = pts
	return f
}

func TestPreviewReceivesEveryFrame(t *testing.T) {
	preview := &fakePreview{}
	p := New(Options{Preview: preview, Mode: vision.ModeDichromat})

	p.HandleFrame(rawFrame(8, 6, 0))
	p.HandleFrame(rawFrame(8, 6, 33*time.Millisecond))

	require.Len(t, preview.frames, 2)
	assert.Equal(t, 8, preview.frames[0].W)
	assert.Equal(t, 6, preview.frames[0].H)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	preview := &fakePreview{}
	p := New(Options{Preview: preview})

	p.HandleFrame(nil)
	p.HandleFrame(&frame.Frame{W: 4, H: 4, Pix: make([]float32, 8)})

	assert.Empty(t, preview.frames)
}

func TestNativeResolutionLatchedFromFirstFrame(t *testing.T) {
	p := New(Options{})

	w, h := p.NativeResolution()
	assert.Zero(t, w)
	assert.Zero(t, h)

	p.HandleFrame(rawFrame(640, 480, 0))
	p.HandleFrame(rawFrame(1280, 720, time.Second))

	w, h = p.NativeResolution()
	assert.Equal(t, 640, w, "resolution must latch from the first frame only")
	assert.Equal(t, 480, h)
}

func TestStillCaptureConsumedOnce(t *testing.T) {
	capture := &fakeCapture{}
	p := New(Options{Capture: capture})

	p.RequestStillCapture()
	p.HandleFrame(rawFrame(4, 4, 0))
	p.HandleFrame(rawFrame(4, 4, time.Second))

	require.Equal(t, 1, capture.pairs, "one request delivers exactly one pair")
	assert.NotNil(t, capture.raw)
	assert.NotNil(t, capture.filtered)
	assert.NotSame(t, capture.raw, capture.filtered)
}

func TestRecordingLifecycle(t *testing.T) {
	rec := &fakeRecorder{}
	p := New(Options{Recorder: rec})

	// Frames before any request never reach the recorder.
	p.HandleFrame(rawFrame(320, 240, 0))
	assert.Empty(t, rec.submitted)

	p.RequestRecordingStart()
	p.HandleFrame(rawFrame(320, 240, 100*time.Millisecond))

	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 320, rec.startW)
	assert.Equal(t, 240, rec.startH)
	require.Len(t, rec.submitted, 1)
	assert.Equal(t, 100*time.Millisecond, rec.submitted[0], "recorder gets the original capture timestamp")

	p.HandleFrame(rawFrame(320, 240, 133*time.Millisecond))
	require.Len(t, rec.submitted, 2)

	p.RequestRecordingStop()
	p.HandleFrame(rawFrame(320, 240, 166*time.Millisecond))
	assert.Equal(t, 1, rec.stops)
	// Stop runs before the submit step, so the stopping frame is
	// not written.
	assert.Len(t, rec.submitted, 2)
}

func TestStartRequestIgnoredWhileActive(t *testing.T) {
	rec := &fakeRecorder{active: true}
	p := New(Options{Recorder: rec})

	p.RequestRecordingStart()
	p.HandleFrame(rawFrame(4, 4, 0))

	assert.Zero(t, rec.starts, "start request while active must be ignored")
}

func TestRecorderStartFailureDoesNotAbortFrame(t *testing.T) {
	preview := &fakePreview{}
	capture := &fakeCapture{}
	rec := &fakeRecorder{startErr: assert.AnError}
	p := New(Options{Preview: preview, Capture: capture, Recorder: rec})

	p.RequestRecordingStart()
	p.RequestStillCapture()
	p.HandleFrame(rawFrame(4, 4, 0))

	assert.Equal(t, 1, rec.starts)
	assert.Len(t, preview.frames, 1, "preview delivery survives recorder failure")
	assert.Equal(t, 1, capture.pairs, "capture delivery survives recorder failure")
}

func TestCameraSwitchRunsOffFrameThread(t *testing.T) {
	sw := &fakeSwitcher{done: make(chan struct{}, 1)}
	p := New(Options{Camera: sw})

	p.RequestCameraSwitch()
	p.HandleFrame(rawFrame(4, 4, 0))

	select {
	case <-sw.done:
	case <-time.After(time.Second):
		t.Fatal("camera switch never ran")
	}
	assert.Equal(t, 1, sw.callCount())

	// The request was consumed; further frames don't re-trigger it.
	p.HandleFrame(rawFrame(4, 4, time.Second))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sw.callCount())
}

func TestModeSwitchTakesEffectNextFrame(t *testing.T) {
	preview := &fakePreview{}
	p := New(Options{Preview: preview, Mode: vision.ModeDichromat})

	p.HandleFrame(rawFrame(4, 4, 0))
	p.SetMode(vision.ModeThermal)
	p.HandleFrame(rawFrame(4, 4, time.Second))

	require.Len(t, preview.frames, 2)
	// Thermal output of a mid-gray frame is strongly colored, unlike
	// the dichromat output.
	first := preview.frames[0]
	second := preview.frames[1]
	assert.NotEqual(t, first.Pix, second.Pix)
	assert.Equal(t, vision.ModeThermal, p.Mode())
}

func TestSetModeRejectsInvalid(t *testing.T) {
	p := New(Options{Mode: vision.ModeAcuity})
	p.SetMode(vision.Mode(42))
	assert.Equal(t, vision.ModeAcuity, p.Mode())
}
