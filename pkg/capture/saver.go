// Package capture persists still-capture results: the raw frame and
// its filtered counterpart, saved as a pair.
package capture

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kindredlens/go-wildeye/internal/log"
	"github.com/kindredlens/go-wildeye/pkg/frame"
)

const jpegQuality = 92

// Saver writes each delivered pair as two JPEGs sharing an id:
// <id>-raw.jpg and <id>-filtered.jpg.
type Saver struct {
	fs  afero.Afero
	dir string

	// OnSaved, if set, is called with the filtered image path after a
	// pair lands on disk.
	OnSaved func(path string)
}

// NewSaver writes pairs into dir on fs.
func NewSaver(fs afero.Fs, dir string) *Saver {
	return &Saver{fs: afero.Afero{Fs: fs}, dir: dir}
}

// Deliver implements the pipeline capture sink. Failures are logged
// and swallowed: a failed save never disturbs the frame loop.
func (s *Saver) Deliver(raw, filtered *frame.Frame) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		log.Warn("capture dir unavailable", "dir", s.dir, "err", err)
		return
	}
	id := uuid.NewString()
	if err := s.writeJPEG(filepath.Join(s.dir, id+"-raw.jpg"), raw); err != nil {
		log.Warn("raw capture save failed", "err", err)
		return
	}
	path := filepath.Join(s.dir, id+"-filtered.jpg")
	if err := s.writeJPEG(path, filtered); err != nil {
		log.Warn("filtered capture save failed", "err", err)
		return
	}
	log.Info("still capture saved", "id", id)
	if s.OnSaved != nil {
		s.OnSaved(path)
	}
}

func (s *Saver) writeJPEG(path string, f *frame.Frame) error {
	data, err := f.ToJPEG(jpegQuality)
	if err != nil {
		return err
	}
	return s.fs.WriteFile(path, data, 0o644)
}
