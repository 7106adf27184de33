package exporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"ipcam-cli/internal/capture"
)

var (
	framesReadDesc = prometheus.NewDesc(
		"ipcam_frames_read_total", "Frames read from the stream since it started.", []string{"camera"}, nil,
	)
	readFailuresDesc = prometheus.NewDesc(
		"ipcam_read_failures_total", "Failed frame reads since the stream started.", []string{"camera"}, nil,
	)
	framesRecordedDesc = prometheus.NewDesc(
		"ipcam_frames_recorded_total", "Frames written to recordings since the stream started.", []string{"camera"}, nil,
	)
	recordingDesc = prometheus.NewDesc(
		"ipcam_recording", "Whether a recording is attached.", []string{"camera"}, nil,
	)
)

// SessionCollector exposes the acquisition counters of one live stream.
type SessionCollector struct {
	Camera string
	Stats  func() capture.Stats
}

func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- framesReadDesc
	ch <- readFailuresDesc
	ch <- framesRecordedDesc
	ch <- recordingDesc
}

func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.Stats()

	recording := 0.0
	if s.Recording {
		recording = 1.0
	}

	ch <- prometheus.MustNewConstMetric(framesReadDesc, prometheus.CounterValue, float64(s.FramesRead), c.Camera)
	ch <- prometheus.MustNewConstMetric(readFailuresDesc, prometheus.CounterValue, float64(s.ReadFailures), c.Camera)
	ch <- prometheus.MustNewConstMetric(framesRecordedDesc, prometheus.CounterValue, float64(s.FramesRecorded), c.Camera)
	ch <- prometheus.MustNewConstMetric(recordingDesc, prometheus.GaugeValue, recording, c.Camera)
}
