package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"ipcam-cli/pkg/models"
)

// fakeCamera answers the VAPIX endpoints from in-memory state and records
// the last form posted to each path.
type fakeCamera struct {
	mu          sync.Mutex
	pan         string
	tilt        string
	zoom        string
	fps         string
	compression string
	extraParams []string
	lastForm    map[string]url.Values
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{
		pan:         "10.5",
		tilt:        "-3.0",
		zoom:        "1",
		fps:         "15",
		compression: "30",
		lastForm:    make(map[string]url.Values),
	}
}

func (f *fakeCamera) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastForm[r.URL.Path] = r.PostForm

	switch r.URL.Path {
	case PTZPath:
		switch r.PostForm.Get("query") {
		case "position":
			fmt.Fprintf(w, "pan=%s\ntilt=%s\nzoom=%s\n", f.pan, f.tilt, f.zoom)
		case "limits":
			fmt.Fprint(w, "MinPan=-180\nMaxPan=180\nMinTilt=-90\nMaxTilt=10\nMinZoom=1\nMaxZoom=9999\n")
		default:
			f.pan = r.PostForm.Get("pan")
			f.tilt = r.PostForm.Get("tilt")
			f.zoom = r.PostForm.Get("zoom")
			w.WriteHeader(http.StatusNoContent)
		}
	case ParamPath:
		switch r.PostForm.Get("action") {
		case "list":
			lines := append([]string{}, f.extraParams...)
			lines = append(lines,
				"root.Image.I0.Stream.FPS="+f.fps,
				"root.Image.I0.Appearance.Compression="+f.compression,
			)
			fmt.Fprint(w, strings.Join(lines, "\n")+"\n")
		case "update":
			f.fps = r.PostForm.Get(ParamFPS)
			f.compression = r.PostForm.Get(ParamCompression)
			fmt.Fprint(w, "OK\n")
		}
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeCamera) form(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm[path]
}

func startFake(t *testing.T, h http.Handler) models.CameraEndpoint {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return models.CameraEndpoint{
		Address:  strings.TrimPrefix(srv.URL, "http://"),
		Username: "root",
		Password: "pass",
	}
}
