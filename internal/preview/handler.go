package preview

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const boundary = "frame"

// DefaultStreamInterval paces the MJPEG stream.
const DefaultStreamInterval = 100 * time.Millisecond

// maxIdleTicks closes an MJPEG client when no frame shows up for this many
// ticks.
const maxIdleTicks = 100

type Handler struct {
	holder   *Holder
	status   func() any
	interval time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewHandler serves frames from holder. status, when set, backs GET /status.
func NewHandler(holder *Holder, status func() any, interval time.Duration) *Handler {
	if interval <= 0 {
		interval = DefaultStreamInterval
	}
	return &Handler{holder: holder, status: status, interval: interval, done: make(chan struct{})}
}

// Close ends every open MJPEG stream. http.Server.Shutdown does not cancel
// request contexts, so call it first.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/frame.jpg", h.Frame)
	g.GET("/stream.mjpeg", h.Stream)
	if h.status != nil {
		g.GET("/status", h.Status)
	}
}

func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	return e
}

func noCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// Frame returns the latest JPEG, or 503 before the first frame.
func (h *Handler) Frame(c echo.Context) error {
	jpg, _ := h.holder.Latest()
	if len(jpg) == 0 {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no frame available yet")
	}

	noCache(c.Response())
	return c.Blob(http.StatusOK, "image/jpeg", jpg)
}

// Stream writes the latest frame as multipart/x-mixed-replace until the
// client goes away.
func (h *Handler) Stream(c echo.Context) error {
	res := c.Response()
	noCache(res)
	res.Header().Set(echo.HeaderContentType, "multipart/x-mixed-replace; boundary="+boundary)
	res.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	idle := 0
	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-h.done:
			return nil
		case <-ticker.C:
		}

		jpg, _ := h.holder.Latest()
		if len(jpg) == 0 {
			idle++
			if idle > maxIdleTicks {
				return nil
			}
			continue
		}
		idle = 0

		if _, err := fmt.Fprintf(res, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(jpg)); err != nil {
			return nil
		}
		if _, err := res.Write(jpg); err != nil {
			return nil
		}
		if _, err := fmt.Fprint(res, "\r\n"); err != nil {
			return nil
		}
		res.Flush()
	}
}

func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status())
}
