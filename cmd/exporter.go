package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ipcam-cli/internal/exporter"
)

// Variables to hold flag values
var (
	expPort       string
	expTimeout    time.Duration
	serviceAction string // "install", "uninstall", "start", "stop"
)

// --- SERVICE WRAPPER ---

// program implements the kardianos/service interface
type program struct {
	server    *http.Server
	listener  net.Listener
	collector *exporter.CameraCollector
}

func (p *program) Start(s service.Service) error {
	// Start should not block: listen here, serve async.
	registry := prometheus.NewRegistry()
	registry.MustRegister(p.collector)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%s", expPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	p.listener = ln
	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().Str("addr", ln.Addr().String()).Msg("camera exporter listening")
	go p.run()
	return nil
}

func (p *program) run() {
	if err := p.server.Serve(p.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server")
	}
}

func (p *program) Stop(s service.Service) error {
	logger.Info().Msg("stopping service")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("server forced to shutdown")
		}
	}
	return nil
}

// --- COMMAND ---

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Start Prometheus Exporter service",
	Long: `Starts a long-running HTTP server that scrapes PTZ position and stream
parameters of every stored camera. Can be installed as a system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Define Service Configuration
		svcConfig := &service.Config{
			Name:        "ipcam-exporter",
			DisplayName: "IP Camera Prometheus Exporter",
			Description: "Exposes Axis PTZ camera metrics to Prometheus",
			// Arguments passed to the binary when run as a service
			Arguments: []string{
				"exporter",
				"--port", expPort,
				"--scrape-timeout", expTimeout.String(),
			},
		}

		// 2. Handle Service Control Actions (Install, Start, Stop, Uninstall)
		if serviceAction != "" {
			if serviceAction == "install" {
				// the service runs without our working directory or env
				path := viper.ConfigFileUsed()
				if path == "" {
					fmt.Println("Error: No config file found. Create one (e.g. with 'ipcam use') before installing the service.")
					os.Exit(1)
				}
				if abs, err := filepath.Abs(path); err == nil {
					path = abs
				}
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", path)
			}

			s, err := service.New(&program{}, svcConfig)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			if err := service.Control(s, serviceAction); err != nil {
				fmt.Printf("Failed to %s service: %v\n", serviceAction, err)
				os.Exit(1)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		prg := &program{
			collector: &exporter.CameraCollector{
				Store:   setupStore(),
				Client:  setupAxisClient(),
				Timeout: expTimeout,
				Log:     logger,
			},
		}

		s, err := service.New(prg, svcConfig)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		// 3. Run the Service (Blocking)
		// This happens when the Service Manager starts the binary, OR when run interactively without flags
		if err = s.Run(); err != nil {
			logger.Error().Err(err).Msg("service run")
		}
	},
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&expPort, "port", "9101", "Port to listen on")
	exporterCmd.Flags().DurationVar(&expTimeout, "scrape-timeout", 10*time.Second, "Upper bound for one scrape of all cameras")
	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
