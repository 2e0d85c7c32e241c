package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/engine/enginetest"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/MeKo-Tech/frameocr/internal/version"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewServer_RequiresProcessor(t *testing.T) {
	_, err := NewServer(Config{}, nil)
	assert.Error(t, err)
}

func TestServer_HealthHandler(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(helloText()), nil)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
		checkResponse  bool
	}{
		{"GET request success", http.MethodGet, http.StatusOK, true},
		{"POST request not allowed", http.MethodPost, http.StatusMethodNotAllowed, false},
		{"PUT request not allowed", http.MethodPut, http.StatusMethodNotAllowed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse {
				var response HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "healthy", response.Status)
				assert.Equal(t, version.Version, response.Version)
				assert.NotEmpty(t, response.Time)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func decodeResult(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	result, ok := doc["result"].(map[string]any)
	require.True(t, ok, "missing result in %s", body)
	return result
}

func TestServer_FramesHandler_RawBody(t *testing.T) {
	eng := enginetest.Returning(helloText())
	server := newTestServer(t, eng, nil)
	data := encodeImageToPNG(t, createTestImage(40, 20))

	req := httptest.NewRequest(http.MethodPost, "/frames?orientation=left", bytes.NewReader(data))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()

	server.framesHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, resultDocument, w.Header().Get(FrameResultHeader))
	assert.Equal(t, "0", w.Header().Get(FrameDiagnosticsHeader))

	result := decodeResult(t, w.Body.Bytes())
	assert.Equal(t, "Hello World", result["text"])
	assert.Equal(t, "right", result["orientation"])
	assert.Equal(t, "left", result["og-orientation"])

	calls := eng.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, orientation.Right, calls[0].Orientation)
	assert.Equal(t, 40, calls[0].Image.Bounds().Dx())
}

func TestServer_FramesHandler_DefaultOrientation(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(helloText()), func(c *Config) {
		c.DefaultOrientation = orientation.Right
	})
	data := encodeImageToPNG(t, createTestImage(8, 8))

	w := httptest.NewRecorder()
	server.framesHandler(w, httptest.NewRequest(http.MethodPost, "/frames", bytes.NewReader(data)))

	require.Equal(t, http.StatusOK, w.Code)
	result := decodeResult(t, w.Body.Bytes())
	assert.Equal(t, "left", result["orientation"])
	assert.Equal(t, "right", result["og-orientation"])
}

func TestServer_FramesHandler_Multipart(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(helloText()), nil)
	data := encodeImageToPNG(t, createTestImage(8, 8))

	t.Run("text format", func(t *testing.T) {
		req := createMultipartFrameRequest(t, "/frames", data, map[string]string{"orientation": "down", "format": "text"})
		w := httptest.NewRecorder()
		server.framesHandler(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "Hello World", w.Body.String())
	})

	t.Run("yaml format", func(t *testing.T) {
		req := createMultipartFrameRequest(t, "/frames?format=yaml", data, map[string]string{"orientation": "6"})
		w := httptest.NewRecorder()
		server.framesHandler(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))

		var doc struct {
			Result struct {
				Orientation   string `yaml:"orientation"`
				OgOrientation string `yaml:"og-orientation"`
			} `yaml:"result"`
		}
		require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &doc))
		// EXIF 6 is right
		assert.Equal(t, "left", doc.Result.Orientation)
		assert.Equal(t, "right", doc.Result.OgOrientation)
	})

	t.Run("missing frame field", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString("--x\r\nContent-Disposition: form-data; name=\"other\"\r\n\r\nvalue\r\n--x--\r\n")
		req := httptest.NewRequest(http.MethodPost, "/frames", &buf)
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		w := httptest.NewRecorder()
		server.framesHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no \\\"frame\\\" file provided")
	})
}

func TestServer_FramesHandler_EngineFailure(t *testing.T) {
	eng := enginetest.New(
		enginetest.Response{Err: errors.New("engine exploded")},
		enginetest.Response{Text: helloText()},
	)
	server := newTestServer(t, eng, nil)
	data := encodeImageToPNG(t, createTestImage(8, 8))

	w := httptest.NewRecorder()
	server.framesHandler(w, httptest.NewRequest(http.MethodPost, "/frames", bytes.NewReader(data)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resultNone, w.Header().Get(FrameResultHeader))
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))

	w = httptest.NewRecorder()
	server.framesHandler(w, httptest.NewRequest(http.MethodPost, "/frames", bytes.NewReader(data)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resultDocument, w.Header().Get(FrameResultHeader))
}

func TestServer_FramesHandler_Errors(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(helloText()), nil)
	png := encodeImageToPNG(t, createTestImage(8, 8))

	tests := []struct {
		name           string
		method         string
		target         string
		body           []byte
		expectedStatus int
		expectedError  string
	}{
		{"GET not allowed", http.MethodGet, "/frames", nil, http.StatusMethodNotAllowed, ""},
		{"invalid orientation", http.MethodPost, "/frames?orientation=sideways", png, http.StatusBadRequest, "invalid orientation"},
		{"unsupported format", http.MethodPost, "/frames?format=csv", png, http.StatusBadRequest, "Unsupported format"},
		{"not an image", http.MethodPost, "/frames", []byte("definitely not a png"), http.StatusBadRequest, "Invalid frame"},
		{"empty body", http.MethodPost, "/frames", nil, http.StatusBadRequest, "Invalid frame"},
		{"too large", http.MethodPost, "/frames", make([]byte, 1<<20+10), http.StatusRequestEntityTooLarge, "Frame too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, bytes.NewReader(tt.body))
			w := httptest.NewRecorder()

			server.framesHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				var response ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.False(t, response.Success)
				assert.Contains(t, response.Error, tt.expectedError)
			}
		})
	}
}

func TestServer_SetupRoutes(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(helloText()), nil)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	t.Run("health with request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("frames", func(t *testing.T) {
		data := encodeImageToPNG(t, createTestImage(8, 8))
		req := httptest.NewRequest(http.MethodPost, "/frames?orientation=up", bytes.NewReader(data))
		req.Header.Set(RequestIDHeader, "frame-42")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "frame-42", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "up", decodeResult(t, w.Body.Bytes())["orientation"])
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "frameocr_http_requests_total")
	})
}

func TestServer_WriteErrorResponse(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(nil), nil)

	w := httptest.NewRecorder()
	server.writeErrorResponse(w, "Invalid input", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"Invalid input"}`, w.Body.String())
}
