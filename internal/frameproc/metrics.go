package frameproc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK          = "ok"
	statusFailed      = "failed"
	statusUnavailable = "unavailable"
)

var (
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frameocr_frames_total",
			Help: "Total number of processed frames",
		},
		[]string{"status"}, // status: ok, failed, unavailable
	)

	frameDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "frameocr_frame_duration_seconds",
			Help:    "Per-frame recognition and flattening duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	frameBlocks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "frameocr_frame_blocks",
			Help:    "Number of text blocks per recognized frame",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)

	framesPanicked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "frameocr_engine_panics_total",
			Help: "Total number of recovered panics raised by the text engine",
		},
	)

	diagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frameocr_diagnostics_total",
			Help: "Total number of malformed entries skipped while flattening",
		},
		[]string{"kind"},
	)
)
