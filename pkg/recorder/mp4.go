package recorder

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/kindredlens/go-wildeye/pkg/frame"
)

// Container settings are fixed per implementation: H.264 in MP4 at a
// constant frame rate.
const (
	mp4Codec = "avc1"
	mp4FPS   = 30
)

// MP4Encoder writes frames through OpenCV's VideoWriter. Timestamps
// are accepted for interface symmetry; the writer runs at a constant
// frame rate, so pacing is the submitter's concern.
type MP4Encoder struct {
	w, h   int
	writer *gocv.VideoWriter
}

// NewMP4Encoder opens an MP4 container at path. Satisfies
// EncoderFactory.
func NewMP4Encoder(path string, w, h int) (Encoder, error) {
	writer, err := gocv.VideoWriterFile(path, mp4Codec, mp4FPS, w, h, true)
	if err != nil {
		return nil, err
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer rejected %dx%d@%d", w, h, mp4FPS)
	}
	return &MP4Encoder{w: w, h: h, writer: writer}, nil
}

// WriteFrame encodes one frame. Frames that do not match the session
// resolution are rejected rather than resized.
func (e *MP4Encoder) WriteFrame(f *frame.Frame, _ time.Duration) error {
	if f.W != e.w || f.H != e.h {
		return fmt.Errorf("frame is %dx%d, session is %dx%d", f.W, f.H, e.w, e.h)
	}
	mat, err := gocv.NewMatFromBytes(e.h, e.w, gocv.MatTypeCV8UC3, f.ToBGRBytes())
	if err != nil {
		return err
	}
	defer mat.Close()
	return e.writer.Write(mat)
}

// Close finalizes the container. The file is playable only after this
// returns.
func (e *MP4Encoder) Close() error {
	return e.writer.Close()
}
