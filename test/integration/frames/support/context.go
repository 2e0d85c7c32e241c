// Package support holds the godog step definitions for the frame suite.
// Scenarios run in process against a scripted engine.
package support

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/MeKo-Tech/frameocr/internal/engine/enginetest"
	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/frameproc"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/MeKo-Tech/frameocr/internal/server"
	"github.com/MeKo-Tech/frameocr/internal/testutil"
	"github.com/gorilla/websocket"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	Engine    *enginetest.Engine
	Processor *frameproc.Processor
	Logger    *slog.Logger

	// Current frame
	Frame    frame.Frame
	FramePNG []byte

	// Processing results
	Document    *flatten.Document
	Diagnostics flatten.Diagnostics

	// Host runtime
	ServerConfig server.Config
	HTTPServer   *httptest.Server
	WS           *websocket.Conn

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPHeaders    http.Header
	LastHTTPResponse   []byte

	// WebSocket state
	LastWSMessage map[string]any
}

// NewTestContext returns a context with a scripted engine that returns
// empty text until told otherwise.
func NewTestContext() *TestContext {
	eng := enginetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &TestContext{
		Engine:    eng,
		Processor: frameproc.New(eng, frameproc.WithLogger(logger)),
		Logger:    logger,
		ServerConfig: server.Config{
			MaxUploadMB:     1,
			TimeoutSec:      5,
			CORSOrigin:      "*",
			DropOverlapping: false,
			Logger:          logger,
		},
	}
}

// Cleanup closes connections and servers opened by the scenario.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.WS != nil {
		_ = testCtx.WS.Close()
		testCtx.WS = nil
	}
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	return nil
}

// setFrame renders a synthetic frame reading text as delivered by a device
// held in o.
func (testCtx *TestContext) setFrame(text string, o orientation.Orientation) error {
	cfg := testutil.DefaultFrameConfig()
	cfg.Lines = []string{text}
	cfg.Orientation = o
	img := testutil.GenerateFrame(cfg)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	testCtx.Frame = frame.Frame{Image: img, Orientation: o}
	testCtx.FramePNG = buf.Bytes()
	return nil
}
