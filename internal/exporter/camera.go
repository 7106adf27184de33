package exporter

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"ipcam-cli/pkg/models"
)

// Lister returns the cameras to scrape.
type Lister interface {
	List(ctx context.Context) ([]models.Camera, error)
}

// Scraper is the subset of the camera client used per scrape.
type Scraper interface {
	GetPosition(ctx context.Context, ep models.CameraEndpoint) (models.Position, error)
	GetStreamParameters(ctx context.Context, ep models.CameraEndpoint) (models.StreamParameters, models.Fields, error)
}

var (
	upDesc = prometheus.NewDesc(
		"ipcam_up", "Whether the camera answered the last scrape.", []string{"camera", "ip"}, nil,
	)
	positionDesc = prometheus.NewDesc(
		"ipcam_ptz_position", "Current PTZ position.", []string{"camera", "axis"}, nil,
	)
	fpsDesc = prometheus.NewDesc(
		"ipcam_stream_fps", "Configured stream frame rate.", []string{"camera"}, nil,
	)
	compressionDesc = prometheus.NewDesc(
		"ipcam_stream_compression", "Configured stream compression.", []string{"camera"}, nil,
	)
	camerasDesc = prometheus.NewDesc(
		"ipcam_cameras_total", "Cameras in the credential store.", nil, nil,
	)
	storeUpDesc = prometheus.NewDesc(
		"ipcam_store_up", "Whether the credential store could be read.", nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"ipcam_scrape_duration_seconds", "Time taken to scrape all cameras.", nil, nil,
	)
)

// CameraCollector queries every stored camera on each scrape.
type CameraCollector struct {
	Store   Lister
	Client  Scraper
	Timeout time.Duration
	Log     zerolog.Logger

	mu sync.Mutex
}

func (c *CameraCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- positionDesc
	ch <- fpsDesc
	ch <- compressionDesc
	ch <- camerasDesc
	ch <- storeUpDesc
	ch <- scrapeDurationDesc
}

func (c *CameraCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cams, err := c.Store.List(ctx)
	if err != nil {
		c.Log.Error().Err(err).Msg("listing cameras")
		ch <- prometheus.MustNewConstMetric(storeUpDesc, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
		return
	}
	ch <- prometheus.MustNewConstMetric(storeUpDesc, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(camerasDesc, prometheus.GaugeValue, float64(len(cams)))

	var wg sync.WaitGroup
	for _, cam := range cams {
		wg.Add(1)
		go func(cam models.Camera) {
			defer wg.Done()
			c.scrape(ctx, cam, ch)
		}(cam)
	}
	wg.Wait()

	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
}

func (c *CameraCollector) scrape(ctx context.Context, cam models.Camera, ch chan<- prometheus.Metric) {
	ep := cam.Endpoint()

	pos, err := c.Client.GetPosition(ctx, ep)
	if err != nil {
		c.Log.Warn().Err(err).Str("camera", cam.Name).Msg("scraping position")
		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 0, cam.Name, cam.Address)
		return
	}
	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 1, cam.Name, cam.Address)
	ch <- prometheus.MustNewConstMetric(positionDesc, prometheus.GaugeValue, pos.Pan, cam.Name, "pan")
	ch <- prometheus.MustNewConstMetric(positionDesc, prometheus.GaugeValue, pos.Tilt, cam.Name, "tilt")
	ch <- prometheus.MustNewConstMetric(positionDesc, prometheus.GaugeValue, pos.Zoom, cam.Name, "zoom")

	params, _, err := c.Client.GetStreamParameters(ctx, ep)
	if err != nil {
		c.Log.Warn().Err(err).Str("camera", cam.Name).Msg("scraping stream parameters")
		return
	}
	ch <- prometheus.MustNewConstMetric(fpsDesc, prometheus.GaugeValue, float64(params.FPS), cam.Name)
	ch <- prometheus.MustNewConstMetric(compressionDesc, prometheus.GaugeValue, float64(params.Compression), cam.Name)
}
