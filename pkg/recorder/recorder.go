// Package recorder multiplexes filtered frames into an encoded video
// container. It wraps an external encoder behind a small state machine
// that never blocks the frame-processing thread: frames the encoder
// cannot keep up with are dropped, not queued unboundedly.
package recorder

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kindredlens/go-wildeye/internal/log"
	"github.com/kindredlens/go-wildeye/pkg/frame"
)

// State of the recording state machine.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateFinalizing
)

// Encoder writes frames to a container. WriteFrame receives timestamps
// already rebased so the first frame of a session lands at zero. Close
// finalizes the container; the file is only playable after Close
// returns.
type Encoder interface {
	WriteFrame(f *frame.Frame, pts time.Duration) error
	Close() error
}

// EncoderFactory opens an encoder for one session.
type EncoderFactory func(path string, w, h int) (Encoder, error)

// Result is delivered once per session when finalization completes.
type Result struct {
	Path string
	Err  error
}

// EncoderInitError means recording could not start; the recorder stays
// idle.
type EncoderInitError struct {
	Path string
	Err  error
}

func (e *EncoderInitError) Error() string {
	return fmt.Sprintf("recorder: encoder init for %s: %v", e.Path, e.Err)
}

func (e *EncoderInitError) Unwrap() error { return e.Err }

// submitQueueSize bounds how far the encoder may fall behind before
// frames are dropped.
const submitQueueSize = 16

type submission struct {
	f   *frame.Frame
	pts time.Duration
}

// Recorder is the session state machine. One recorder serves one
// processor; at most one session is active at a time.
type Recorder struct {
	fs         afero.Afero
	dir        string
	newEncoder EncoderFactory

	results chan Result

	mu       sync.Mutex
	state    State
	path     string
	frames   chan submission
	anchor   time.Duration
	anchored bool
	accepted int
	dropped  int
}

// New creates an idle recorder writing sessions into dir on fs.
func New(fs afero.Fs, dir string, factory EncoderFactory) *Recorder {
	return &Recorder{
		fs:         afero.Afero{Fs: fs},
		dir:        dir,
		newEncoder: factory,
		results:    make(chan Result, 4),
	}
}

// Done delivers one Result per finished session.
func (r *Recorder) Done() <-chan Result {
	return r.results
}

// State returns the current machine state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Active reports whether a session is accepting frames.
func (r *Recorder) Active() bool {
	return r.State() == StateActive
}

// Start opens a new session at the given resolution. It fails with an
// *EncoderInitError if the output target cannot be created or the
// encoder rejects the configuration, and with a plain error if a
// session is already in flight.
func (r *Recorder) Start(w, h int) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return fmt.Errorf("recorder: session already in state %d", r.state)
	}
	r.state = StateStarting
	r.mu.Unlock()

	path := filepath.Join(r.dir, "wildeye-"+uuid.NewString()+".mp4")
	if err := r.fs.MkdirAll(r.dir, 0o755); err != nil {
		r.setState(StateIdle)
		return &EncoderInitError{Path: path, Err: err}
	}
	enc, err := r.newEncoder(path, w, h)
	if err != nil {
		r.setState(StateIdle)
		return &EncoderInitError{Path: path, Err: err}
	}

	frames := make(chan submission, submitQueueSize)

	r.mu.Lock()
	r.path = path
	r.frames = frames
	r.anchored = false
	r.accepted = 0
	r.dropped = 0
	r.state = StateActive
	r.mu.Unlock()

	go r.encodeLoop(enc, frames, path)

	log.Info("recording started", "path", path, "width", w, "height", h)
	return nil
}

// Submit hands a filtered frame to the session. It is a no-op unless
// the recorder is active, and never blocks: when the encoder queue is
// full the frame is dropped. The first accepted frame's timestamp
// anchors the session clock, so that frame lands at output time zero.
func (r *Recorder) Submit(f *frame.Frame, pts time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateActive {
		return
	}
	if !r.anchored {
		r.anchor = pts
		r.anchored = true
	}
	select {
	case r.frames <- submission{f: f, pts: pts - r.anchor}:
		r.accepted++
	default:
		r.dropped++
		log.Debug("encoder queue full, frame dropped", "dropped", r.dropped)
	}
}

// Stop finalizes the active session. Finalization itself happens off
// the calling thread; the outcome arrives on Done (and leaves the
// machine idle). Stop on an idle or already-finalizing recorder is a
// no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateActive {
		return nil
	}
	r.state = StateFinalizing
	close(r.frames)
	r.frames = nil
	return nil
}

// encodeLoop drains the queue, finalizes the container and reports the
// result. Write errors are logged and skipped: streaming is
// best-effort and a bad frame never ends the session.
func (r *Recorder) encodeLoop(enc Encoder, frames <-chan submission, path string) {
	var writeErrs int
	for sub := range frames {
		if err := enc.WriteFrame(sub.f, sub.pts); err != nil {
			writeErrs++
			log.Warn("frame encode failed", "err", err, "failures", writeErrs)
		}
	}
	err := enc.Close()
	if err != nil {
		log.Error("finalize failed", "path", path, "err", err)
	} else {
		log.Info("recording finalized", "path", path, "accepted", r.acceptedCount(), "dropped", r.droppedCount())
	}
	r.setState(StateIdle)
	// Results follow the package's never-block rule: a consumer that
	// stopped draining Done loses old results instead of leaking this
	// goroutine.
	select {
	case r.results <- Result{Path: path, Err: err}:
	default:
		log.Warn("result dropped, Done channel full", "path", path)
	}
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Recorder) acceptedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accepted
}

func (r *Recorder) droppedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
