package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	s := Load(v)

	if s.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", s.Timeout)
	}
	if s.SetTimeout != 0 {
		t.Errorf("SetTimeout = %v, want 0", s.SetTimeout)
	}
	if s.StreamScheme != "rtsp" || s.StreamPath != "/axis-media/media.amp" || !s.StreamMulticast {
		t.Errorf("stream defaults = %q %q %v", s.StreamScheme, s.StreamPath, s.StreamMulticast)
	}
	if s.Codec != "mp4v" {
		t.Errorf("Codec = %q", s.Codec)
	}
	if s.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q", s.DBDriver)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "default_camera: Lobby\ncamera:\n  timeout: 500ms\n  strict_status: true\nstream:\n  max_read_failures: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	s := Load(v)
	if s.DefaultCamera != "Lobby" || s.Timeout != 500*time.Millisecond || !s.StrictStatus || s.MaxReadFailures != 5 {
		t.Errorf("Load() = %+v", s)
	}
}

func TestSaveKey_WritesReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	if err := saveKey(v, "default_camera", "Gate"); err != nil {
		t.Fatalf("saveKey() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "default_camera: Gate") || !strings.Contains(string(data), "level: debug") {
		t.Errorf("config file = %q", data)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("camera", "Lobby").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, `"camera":"Lobby"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("output = %q", out)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("loud", "json", &buf)
	log.Debug().Msg("debug")
	log.Info().Msg("info")

	if strings.Contains(buf.String(), "debug") || !strings.Contains(buf.String(), "info") {
		t.Errorf("output = %q, want info level", buf.String())
	}
}
