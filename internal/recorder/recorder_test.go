package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ipcam-cli/pkg/models"
)

type memWriter struct {
	frames []models.Frame
	closes int
}

func (w *memWriter) Write(f models.Frame) error {
	w.frames = append(w.frames, f)
	return nil
}

func (w *memWriter) Close() error {
	w.closes++
	return nil
}

func frame(w, h int) models.Frame {
	return models.Frame{Width: w, Height: h, Channels: 3, Data: make([]byte, w*h*3)}
}

func TestSink_WritesUntilClosed(t *testing.T) {
	mw := &memWriter{}
	s := NewSink(mw, "cam.avi", 15, 640, 480)

	for i := 0; i < 3; i++ {
		if err := s.Write(frame(640, 480)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if s.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", s.Frames())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if mw.closes != 1 {
		t.Errorf("underlying writer closed %d times, want 1", mw.closes)
	}

	if err := s.Write(frame(640, 480)); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close error = %v, want ErrClosed", err)
	}
	if len(mw.frames) != 3 {
		t.Errorf("writer got %d frames, want 3", len(mw.frames))
	}
}

func TestSink_RejectsOtherSizes(t *testing.T) {
	s := NewSink(&memWriter{}, "cam.avi", 15, 640, 480)

	if err := s.Write(frame(1280, 720)); !errors.Is(err, ErrFrameSize) {
		t.Errorf("Write() error = %v, want ErrFrameSize", err)
	}
	if s.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", s.Frames())
	}
}

func TestFactory_Validation(t *testing.T) {
	dir := t.TempDir()

	if _, err := (Factory{Codec: "h264x"}).Open(filepath.Join(dir, "a.avi"), 15, 640, 480); !errors.Is(err, ErrInvalidCodec) {
		t.Errorf("Open() error = %v, want ErrInvalidCodec", err)
	}
	if _, err := (Factory{}).Open(filepath.Join(dir, "b.avi"), 0, 640, 480); err == nil {
		t.Error("Open() with zero fps should fail")
	}
	if _, err := (Factory{}).Open(filepath.Join(dir, "c.avi"), 15, 0, 0); err == nil {
		t.Error("Open() with unknown frame size should fail")
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	got := FileName("/rec", "Lobby cam/2", at)
	want := filepath.Join("/rec", "Lobby_cam_2_2024-03-09_14-05-07.avi")
	if got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}
