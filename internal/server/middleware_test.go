package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/engine/enginetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_CORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		corsOrigin     string
		method         string
		expectedStatus int
		shouldCallNext bool
	}{
		{"GET request with CORS headers", "*", http.MethodGet, http.StatusOK, true},
		{"POST request with specific origin", "https://example.com", http.MethodPost, http.StatusOK, true},
		{"OPTIONS request (preflight)", "*", http.MethodOptions, http.StatusOK, false},
		{"empty CORS origin", "", http.MethodGet, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{corsOrigin: tt.corsOrigin}

			nextCalled := false
			corsHandler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			corsHandler(w, httptest.NewRequest(tt.method, "/test", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.corsOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), RequestIDHeader)
			assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), FrameResultHeader)
			assert.Equal(t, tt.shouldCallNext, nextCalled)
		})
	}
}

func TestServer_CORSMiddleware_ErrorInNext(t *testing.T) {
	server := &Server{corsOrigin: "*"}

	corsHandler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	corsHandler(w, httptest.NewRequest(http.MethodPost, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RequestIDMiddleware(t *testing.T) {
	server := &Server{}

	var seen string
	handler := server.requestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)
	})

	t.Run("echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", seen)
	})

	assert.Empty(t, RequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestServer_RateLimitMiddleware(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(helloText()), func(c *Config) {
		c.RateLimit = RateLimitConfig{Enabled: true, FramesPerMinute: 2}
	})
	require.NotNil(t, server.rateLimiter)

	calls := 0
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/frames", bytes.NewReader([]byte("x")))
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, post().Code)
	assert.Equal(t, http.StatusOK, post().Code)

	w := post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])
	assert.Equal(t, 2, calls)

	// GET requests are not counted
	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/frames", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_RateLimit_ChunkedUploadChargesData(t *testing.T) {
	data := encodeImageToPNG(t, createTestImage(8, 8))
	limit := int64(len(data) + len(data)/2)
	server := newTestServer(t, enginetest.Returning(helloText()), func(c *Config) {
		c.RateLimit = RateLimitConfig{Enabled: true, MaxDataPerDay: limit}
	})
	handler := server.rateLimitMiddleware(server.framesHandler)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/frames", bytes.NewReader(data))
		req.ContentLength = -1
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, post().Code)
	assert.Equal(t, int64(len(data)), server.rateLimiter.Usage("203.0.113.9").DataToday)

	w := post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "data", w.Header().Get("X-Quota-Type"))
	assert.Equal(t, int64(len(data)), server.rateLimiter.Usage("203.0.113.9").DataToday)
}

func TestServer_RateLimit_KnownLengthChargedOnce(t *testing.T) {
	data := encodeImageToPNG(t, createTestImage(8, 8))
	server := newTestServer(t, enginetest.Returning(helloText()), func(c *Config) {
		c.RateLimit = RateLimitConfig{Enabled: true, MaxDataPerDay: 1 << 20}
	})
	handler := server.rateLimitMiddleware(server.framesHandler)

	req := httptest.NewRequest(http.MethodPost, "/frames", bytes.NewReader(data))
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	w := httptest.NewRecorder()
	handler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(len(data)), server.rateLimiter.Usage("203.0.113.10").DataToday)
}

func TestServer_RateLimitMiddleware_Disabled(t *testing.T) {
	server := newTestServer(t, enginetest.Returning(helloText()), nil)
	assert.Nil(t, server.rateLimiter)

	called := false
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/frames", nil))
	assert.True(t, called)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "192.0.2.1:1234", "10.0.0.1"},
		{"forwarded single", map[string]string{"X-Forwarded-For": " 10.0.0.3 "}, "192.0.2.1:1234", "10.0.0.3"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.4"}, "192.0.2.1:1234", "10.0.0.4"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
