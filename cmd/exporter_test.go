package cmd

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ipcam-cli/internal/exporter"
	"ipcam-cli/pkg/models"
)

type emptyStore struct{}

func (emptyStore) List(context.Context) ([]models.Camera, error) { return nil, nil }

type unusedScraper struct{}

func (unusedScraper) GetPosition(context.Context, models.CameraEndpoint) (models.Position, error) {
	return models.Position{}, nil
}

func (unusedScraper) GetStreamParameters(context.Context, models.CameraEndpoint) (models.StreamParameters, models.Fields, error) {
	return models.StreamParameters{}, nil, nil
}

func TestProgram_StartServesMetricsAndStopShutsDown(t *testing.T) {
	old := expPort
	expPort = "0"
	defer func() { expPort = old }()

	p := &program{collector: &exporter.CameraCollector{
		Store:  emptyStore{},
		Client: unusedScraper{},
		Log:    zerolog.Nop(),
	}}
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	url := "http://" + p.listener.Addr().String() + "/metrics"
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "ipcam_store_up 1") {
		t.Errorf("metrics body missing ipcam_store_up:\n%s", body)
	}

	if err := p.Stop(nil); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, err := http.Get(url); err == nil {
		t.Error("server still answering after Stop()")
	}
}
