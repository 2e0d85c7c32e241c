package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/config"
	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the frame host",
	Long: `Start an HTTP server that accepts camera frames and answers each with
its recognized document.

The server provides the following endpoints:
  POST /frames     - Recognize one uploaded frame (raw body or multipart "frame")
  GET  /ws/frames  - Stream binary frames over a WebSocket
  GET  /health     - Health check endpoint
  GET  /metrics    - Prometheus metrics

Examples:
  frameocr serve
  frameocr serve --port 8080
  frameocr serve --host 0.0.0.0 --orientation left --drop-overlapping=false`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		serverConfig, err := buildServerConfig(cfg, slog.Default())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		proc := newProcessor(cfg, slog.Default())
		frameServer, err := server.NewServer(serverConfig, proc)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		mux := http.NewServeMux()
		frameServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			slog.Info("Starting frame server",
				"host", serverConfig.Host,
				"port", serverConfig.Port,
				"engine", cfg.Engine.Name)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
		slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		if err := engine.ResetShared(); err != nil {
			slog.Error("Text engine cleanup error", "error", err)
		} else {
			slog.Info("Text engine released")
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

// buildServerConfig converts the loaded configuration into server settings.
func buildServerConfig(cfg *config.Config, logger *slog.Logger) (server.Config, error) {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return server.Config{}, fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", cfg.Server.Port)
	}
	o, err := cfg.FrameOrientation()
	if err != nil {
		return server.Config{}, fmt.Errorf("invalid orientation: %w", err)
	}

	return server.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		CORSOrigin:         cfg.Server.CORSOrigin,
		MaxUploadMB:        int64(cfg.Server.MaxUploadMB),
		TimeoutSec:         cfg.Server.TimeoutSec,
		DefaultOrientation: o,
		DropOverlapping:    cfg.Server.DropOverlapping,
		Pretty:             cfg.Output.Pretty,
		RateLimit: server.RateLimitConfig{
			Enabled:         cfg.Server.RateLimitEnabled,
			FramesPerMinute: cfg.Server.FramesPerMinute,
			FramesPerHour:   cfg.Server.FramesPerHour,
			MaxFramesPerDay: cfg.Server.MaxFramesPerDay,
			MaxDataPerDay:   cfg.Server.MaxDataPerDay,
		},
		Logger: logger,
	}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 20, "maximum frame size in MB")
	serveCmd.Flags().Int("timeout", 30, "per-frame recognition timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().String("orientation", "up", "orientation assumed for frames that do not name one")
	serveCmd.Flags().Bool("drop-overlapping", true, "drop WebSocket frames that arrive while one is in flight")
	serveCmd.Flags().Bool("pretty", false, "indent JSON responses")
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable per-client frame rate limiting")
	serveCmd.Flags().Int("frames-per-minute", 600, "maximum frames per minute per client")
	serveCmd.Flags().Int("frames-per-hour", 20000, "maximum frames per hour per client")
	serveCmd.Flags().Int("max-frames-per-day", 200000, "maximum frames per day per client")
	serveCmd.Flags().Int64("max-data-per-day", 10<<30, "maximum frame bytes per day per client")

	serveCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"server.host":               "host",
			"server.port":               "port",
			"server.cors_origin":        "cors-origin",
			"server.max_upload_mb":      "max-upload-size",
			"server.timeout_sec":        "timeout",
			"server.shutdown_timeout":   "shutdown-timeout",
			"frame.default_orientation": "orientation",
			"server.drop_overlapping":   "drop-overlapping",
			"output.pretty":             "pretty",
			"server.rate_limit_enabled": "rate-limit-enabled",
			"server.frames_per_minute":  "frames-per-minute",
			"server.frames_per_hour":    "frames-per-hour",
			"server.max_frames_per_day": "max-frames-per-day",
			"server.max_data_per_day":   "max-data-per-day",
		})
	}
}
