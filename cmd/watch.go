package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"ipcam-cli/internal/capture"
	"ipcam-cli/internal/config"
	"ipcam-cli/internal/exporter"
	"ipcam-cli/internal/preview"
	"ipcam-cli/internal/recorder"
	"ipcam-cli/internal/session"
)

var (
	watchListen   string
	watchRecord   bool
	watchDuration time.Duration
	watchInterval time.Duration
)

// newLoop builds the acquisition loop from the stream and recording settings.
func newLoop(s config.Settings, consumer capture.Consumer) *capture.Loop {
	return capture.NewLoop(capture.Config{
		Open:     capture.OpenGoCV,
		Consumer: consumer,
		Sinks:    recorder.Factory{Codec: s.Codec}.Open,
		Stream: capture.StreamOptions{
			Scheme:    s.StreamScheme,
			Path:      s.StreamPath,
			Multicast: s.StreamMulticast,
		},
		Policy: capture.FailurePolicy{
			MaxConsecutive: s.MaxReadFailures,
			Backoff:        s.ReadBackoff,
		},
		Logger: logger,
	})
}

type watchStatus struct {
	Session   string           `json:"session"`
	Camera    string           `json:"camera"`
	State     string           `json:"state"`
	Recording string           `json:"recording,omitempty"`
	Snapshot  session.Snapshot `json:"snapshot"`
	Stats     capture.Stats    `json:"stats"`
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live video from the camera",
	Long: `Connects to the camera, starts reading its RTSP stream and serves the
latest frame over HTTP:

  /frame.jpg     latest frame
  /stream.mjpeg  live MJPEG stream
  /status        session state as JSON
  /metrics       Prometheus stream counters
  POST /record   start or stop recording

Stop with Ctrl+C.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := settings()
		cam := resolveCamera(cmd.Context(), setupStore())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		holder := preview.NewHolder(preview.EncodeJPEG, watchInterval, logger)
		loop := newLoop(s, holder.Consume)

		sess := session.New("", cam.Endpoint(), setupAxisClient(), loop, session.Options{
			Name:         cam.Name,
			RecordingDir: s.RecordingDir,
			Logger:       logger,
		})

		snap, err := sess.Open(ctx)
		if err != nil {
			fail("opening camera "+cam.Name, err)
		}
		defer sess.Close()

		fmt.Printf("Watching %s (%s) session %s\n", cam.Name, cam.Address, sess.ID)
		fmt.Printf("  position pan=%g tilt=%g zoom=%g, fps=%d compression=%d\n",
			snap.Position.Pan, snap.Position.Tilt, snap.Position.Zoom, snap.Params.FPS, snap.Params.Compression)

		registry := prometheus.NewRegistry()
		registry.MustRegister(&exporter.SessionCollector{Camera: cam.Name, Stats: sess.Stats})

		status := func() any {
			return watchStatus{
				Session:   sess.ID,
				Camera:    cam.Name,
				State:     loop.State().String(),
				Recording: sess.Recording(),
				Snapshot:  snap,
				Stats:     sess.Stats(),
			}
		}

		e := preview.NewServer()
		previews := preview.NewHandler(holder, status, 0)
		previews.RegisterRoutes(e.Group(""))
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
		e.POST("/record", func(c echo.Context) error {
			toggleRecording(ctx, sess)
			return c.JSON(http.StatusOK, status())
		})

		go func() {
			if err := e.Start(watchListen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("listen", watchListen).Msg("preview server")
				stop()
			}
		}()
		fmt.Printf("  preview on http://%s/stream.mjpeg\n", displayAddr(watchListen))

		if watchRecord {
			toggleRecording(ctx, sess)
		}

		var deadline <-chan time.Time
		if watchDuration > 0 {
			deadline = time.After(watchDuration)
		}

		var exitErr error
		select {
		case <-ctx.Done():
		case <-deadline:
		case <-loop.Done():
			exitErr = loop.Err()
		}

		previews.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("preview server shutdown")
		}

		sess.Close()
		stats := sess.Stats()
		fmt.Printf("Stopped. frames=%d failures=%d recorded=%d\n", stats.FramesRead, stats.ReadFailures, stats.FramesRecorded)

		if exitErr != nil {
			fmt.Printf("Error reading stream: %v\n", exitErr)
			os.Exit(1)
		}
	},
}

func toggleRecording(ctx context.Context, sess *session.Session) {
	if path := sess.Recording(); path != "" {
		if err := sess.StopRecording(); err != nil {
			fmt.Printf("Error stopping recording: %v\n", err)
			return
		}
		fmt.Printf("Recording saved to %s\n", path)
		return
	}

	path, err := sess.StartRecording(ctx)
	if err != nil {
		fmt.Printf("Error starting recording: %v\n", err)
		return
	}
	fmt.Printf("Recording to %s\n", path)
}

func displayAddr(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "localhost" + listen
	}
	return listen
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchListen, "listen", ":8080", "Address of the preview server")
	watchCmd.Flags().BoolVar(&watchRecord, "record", false, "Start recording immediately")
	watchCmd.Flags().DurationVar(&watchDuration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	watchCmd.Flags().DurationVar(&watchInterval, "preview-interval", 100*time.Millisecond, "Minimum time between encoded preview frames")
}
