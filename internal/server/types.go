package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// frameProcessor defines the methods needed by the server from a frame processor.
type frameProcessor interface {
	Process(ctx context.Context, f frame.Frame) (*flatten.Document, flatten.Diagnostics)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	processor          frameProcessor
	corsOrigin         string
	maxUploadMB        int64
	timeout            time.Duration
	defaultOrientation orientation.Orientation
	dropOverlapping    bool
	pretty             bool
	rateLimiter        *RateLimiter
	logger             *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host               string
	Port               int
	CORSOrigin         string
	MaxUploadMB        int64
	TimeoutSec         int
	DefaultOrientation orientation.Orientation
	DropOverlapping    bool
	Pretty             bool
	RateLimit          RateLimitConfig
	Logger             *slog.Logger
}

// RateLimitConfig holds per-client frame limits. Zero values disable a limit.
type RateLimitConfig struct {
	Enabled         bool
	FramesPerMinute int
	FramesPerHour   int
	MaxFramesPerDay int
	MaxDataPerDay   int64
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a frame server around processor.
func NewServer(config Config, processor frameProcessor) (*Server, error) {
	if processor == nil {
		return nil, errors.New("server requires a frame processor")
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 20
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		processor:          processor,
		corsOrigin:         config.CORSOrigin,
		maxUploadMB:        config.MaxUploadMB,
		timeout:            time.Duration(config.TimeoutSec) * time.Second,
		defaultOrientation: config.DefaultOrientation,
		dropOverlapping:    config.DropOverlapping,
		pretty:             config.Pretty,
		logger:             logger,
	}
	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.FramesPerMinute, rl.FramesPerHour, rl.MaxFramesPerDay, rl.MaxDataPerDay)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.requestIDMiddleware(s.corsMiddleware(s.healthHandler)))
	mux.HandleFunc("/frames", s.requestIDMiddleware(s.corsMiddleware(s.rateLimitMiddleware(s.framesHandler))))
	// The socket route is not wrapped by corsMiddleware: the upgrade needs
	// the original ResponseWriter to hijack the connection.
	mux.HandleFunc("/ws/frames", s.requestIDMiddleware(s.framesWebSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) maxUploadBytes() int64 {
	return s.maxUploadMB << 20
}

// frameContext bounds one frame by the configured timeout.
func (s *Server) frameContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(parent, s.timeout)
	}
	return context.WithCancel(parent)
}
