package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/frameproc"
	"github.com/MeKo-Tech/frameocr/internal/geometry"
	"github.com/stretchr/testify/require"
)

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// helloText is a one-block recognition result.
func helloText() *engine.Text {
	r := geometry.Rect{X: 10, Y: 10, Width: 90, Height: 20}
	return &engine.Text{
		Text: "Hello World",
		Blocks: []engine.Block{{
			Text:                "Hello World",
			Frame:               &r,
			CornerPoints:        engine.Points(r.Corners()),
			RecognizedLanguages: []engine.Language{{Code: "en"}},
			Lines: []engine.Line{{
				Text:  "Hello World",
				Frame: &r,
				Elements: []engine.Element{
					{Text: "Hello", Frame: &r},
					{Text: "World", Frame: &r},
				},
			}},
		}},
	}
}

// newTestServer builds a server around a processor backed by eng.
func newTestServer(t *testing.T, eng engine.Engine, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		CORSOrigin:  "*",
		MaxUploadMB: 1,
		TimeoutSec:  5,
		Logger:      discardLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewServer(cfg, frameproc.New(eng, frameproc.WithLogger(discardLogger())))
	require.NoError(t, err)
	return s
}

// blockingProcessor holds every frame until release is closed.
type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	frames  []frame.Frame
}

func newBlockingProcessor() *blockingProcessor {
	return &blockingProcessor{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingProcessor) Process(ctx context.Context, f frame.Frame) (*flatten.Document, flatten.Diagnostics) {
	b.mu.Lock()
	b.frames = append(b.frames, f)
	b.mu.Unlock()
	b.started <- struct{}{}
	<-b.release
	doc, diags := flatten.Flatten(helloText(), f.Orientation, f.Orientation)
	return doc, diags
}

// createTestImage creates a simple test image for testing.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.RGBA{byte(x % 256), byte(y % 256), 0, 255})
		}
	}
	return img
}

// encodeImageToPNG encodes an image to PNG bytes.
func encodeImageToPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// createMultipartFrameRequest creates a multipart form request with a frame.
func createMultipartFrameRequest(t *testing.T, target string, imageData []byte, extraFields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(frameFormField, "frame.png")
	require.NoError(t, err)
	_, err = part.Write(imageData)
	require.NoError(t, err)

	for key, value := range extraFields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// mockWebSocketConn records written messages.
type mockWebSocketConn struct {
	mu           sync.Mutex
	sentMessages []sentMessage
}

type sentMessage struct {
	messageType int
	data        []byte
}

func (m *mockWebSocketConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentMessages = append(m.sentMessages, sentMessage{messageType: messageType, data: data})
	return nil
}

func (m *mockWebSocketConn) getSentMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sentMessages...)
}
