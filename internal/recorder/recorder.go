package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"ipcam-cli/internal/capture"
	"ipcam-cli/pkg/models"
)

// DefaultCodec matches what the camera app has always written: MPEG-4 in AVI.
const DefaultCodec = "mp4v"

var (
	ErrClosed       = errors.New("recorder: sink closed")
	ErrFrameSize    = errors.New("recorder: frame size does not match recording")
	ErrInvalidCodec = errors.New("recorder: codec must be a four character code")
)

// Writer is the part of a video file encoder the Sink needs.
type Writer interface {
	Write(f models.Frame) error
	Close() error
}

// Sink guards a Writer: it enforces the size fixed at open time and refuses
// writes once closed.
type Sink struct {
	mu     sync.Mutex
	w      Writer
	path   string
	fps    float64
	width  int
	height int
	frames int
	closed bool
}

func NewSink(w Writer, path string, fps float64, width, height int) *Sink {
	return &Sink{w: w, path: path, fps: fps, width: width, height: height}
}

func (s *Sink) Write(f models.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if f.Width != s.width || f.Height != s.height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, f.Width, f.Height, s.width, s.height)
	}
	if err := s.w.Write(f); err != nil {
		return err
	}
	s.frames++
	return nil
}

// Close flushes and closes the file. Later calls are no-ops.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

// Frames is the number of frames written so far.
func (s *Sink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Factory opens gocv-backed recordings with a fixed codec.
type Factory struct {
	Codec string
}

// Open implements capture.SinkFactory.
func (f Factory) Open(path string, fps float64, width, height int) (capture.Sink, error) {
	codec := f.Codec
	if codec == "" {
		codec = DefaultCodec
	}
	if len(codec) != 4 {
		return nil, ErrInvalidCodec
	}
	if fps <= 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("recorder: invalid recording %vfps %dx%d", fps, width, height)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("recorder: create directory: %w", err)
	}

	vw, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("recorder: %s not opened (codec %s)", path, codec)
	}

	return NewSink(&gocvWriter{vw: vw}, path, fps, width, height), nil
}

// FileName builds "<dir>/<camera>_<timestamp>.avi".
func FileName(dir, camera string, at time.Time) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, camera)
	return filepath.Join(dir, fmt.Sprintf("%s_%s.avi", name, at.Format("2006-01-02_15-04-05")))
}

type gocvWriter struct {
	vw *gocv.VideoWriter
}

func (g *gocvWriter) Write(f models.Frame) error {
	mat, err := capture.BGRMat(f)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	defer mat.Close()
	return g.vw.Write(mat)
}

func (g *gocvWriter) Close() error {
	return g.vw.Close()
}
