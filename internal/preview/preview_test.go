package preview

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"ipcam-cli/internal/capture"
	"ipcam-cli/pkg/models"
)

// fakeEncode "encodes" a frame as its data prefixed with a marker.
func fakeEncode(f models.Frame) ([]byte, error) {
	if len(f.Data) == 0 {
		return nil, errors.New("empty frame")
	}
	return append([]byte("JPG:"), f.Data...), nil
}

func frameAt(seq uint64, at time.Time, data string) models.Frame {
	return models.Frame{Seq: seq, Timestamp: at, Width: 2, Height: 1, Channels: 3, Data: []byte(data)}
}

func TestHolder_KeepsLatest(t *testing.T) {
	h := NewHolder(fakeEncode, 0, zerolog.Nop())

	if jpg, _ := h.Latest(); jpg != nil {
		t.Fatalf("Latest() before any frame = %q, want nil", jpg)
	}

	now := time.Now()
	h.Consume(frameAt(1, now, "aaa"))
	h.Consume(frameAt(2, now, "bbb"))

	jpg, seq := h.Latest()
	if seq != 2 || string(jpg) != "JPG:bbb" {
		t.Errorf("Latest() = %q, %d", jpg, seq)
	}

	// returned slice is a copy
	jpg[0] = 'x'
	again, _ := h.Latest()
	if string(again) != "JPG:bbb" {
		t.Errorf("Latest() shares its buffer: %q", again)
	}
}

func TestHolder_SkipsFailedEncode(t *testing.T) {
	h := NewHolder(fakeEncode, 0, zerolog.Nop())
	now := time.Now()
	h.Consume(frameAt(1, now, "aaa"))
	h.Consume(frameAt(2, now, ""))

	if _, seq := h.Latest(); seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
}

func TestHolder_Interval(t *testing.T) {
	h := NewHolder(fakeEncode, time.Second, zerolog.Nop())
	start := time.Now()

	h.Consume(frameAt(1, start, "a"))
	h.Consume(frameAt(2, start.Add(200*time.Millisecond), "b"))
	if _, seq := h.Latest(); seq != 1 {
		t.Errorf("seq = %d, want 1 inside interval", seq)
	}

	h.Consume(frameAt(3, start.Add(1500*time.Millisecond), "c"))
	if _, seq := h.Latest(); seq != 3 {
		t.Errorf("seq = %d, want 3 after interval", seq)
	}
}

func TestHandler_FrameNotReady(t *testing.T) {
	h := NewHandler(NewHolder(fakeEncode, 0, zerolog.Nop()), nil, 0)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/frame.jpg", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Frame(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Frame() error = %v, want 503", err)
	}
}

func TestHandler_Frame(t *testing.T) {
	holder := NewHolder(fakeEncode, 0, zerolog.Nop())
	holder.Consume(frameAt(1, time.Now(), "xyz"))
	h := NewHandler(holder, nil, 0)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/frame.jpg", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Frame(c); err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "JPG:xyz" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandler_Stream(t *testing.T) {
	holder := NewHolder(fakeEncode, 0, zerolog.Nop())
	holder.Consume(frameAt(1, time.Now(), "one"))

	e := NewServer()
	NewHandler(holder, nil, 10*time.Millisecond).RegisterRoutes(e.Group(""))
	srv := httptest.NewServer(e)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream.mjpeg")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	mr := multipart.NewReader(resp.Body, boundary)
	part, err := mr.NextPart()
	if err != nil {
		t.Fatalf("NextPart() error = %v", err)
	}
	if ct := part.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("part Content-Type = %q", ct)
	}
	body, err := io.ReadAll(part)
	if err != nil {
		t.Fatalf("reading part: %v", err)
	}
	if !bytes.Equal(body, []byte("JPG:one")) {
		t.Errorf("part body = %q", body)
	}
}

func TestHandler_CloseEndsStream(t *testing.T) {
	holder := NewHolder(fakeEncode, 0, zerolog.Nop())
	holder.Consume(frameAt(1, time.Now(), "one"))
	h := NewHandler(holder, nil, 5*time.Millisecond)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/stream.mjpeg", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	returned := make(chan error, 1)
	go func() { returned <- h.Stream(c) }()

	time.Sleep(20 * time.Millisecond)
	h.Close()
	h.Close()

	select {
	case err := <-returned:
		if err != nil {
			t.Errorf("Stream() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stream() still running after Close()")
	}
}

func TestHandler_Status(t *testing.T) {
	h := NewHandler(NewHolder(fakeEncode, 0, zerolog.Nop()), func() any {
		return map[string]string{"camera": "Lobby"}
	}, 0)
	e := NewServer()
	h.RegisterRoutes(e.Group(""))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"camera\":\"Lobby\"}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestEncodeJPEG_RejectsUnsupportedChannels(t *testing.T) {
	_, err := EncodeJPEG(models.Frame{Width: 2, Height: 1, Channels: 2, Data: make([]byte, 4)})
	if !errors.Is(err, capture.ErrUnsupportedFrame) {
		t.Errorf("EncodeJPEG() error = %v, want ErrUnsupportedFrame", err)
	}
}
