package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/MeKo-Tech/frameocr/internal/version"
)

const (
	// FrameResultHeader is "document" when a document was produced and
	// "none" when the engine failed for the frame.
	FrameResultHeader = "X-Frame-Result"
	// FrameDiagnosticsHeader counts the malformed entries skipped.
	FrameDiagnosticsHeader = "X-Frame-Diagnostics"

	frameFormField = "frame"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health response", "error", err)
	}
}

// framesHandler recognizes one uploaded frame. The body is either the raw
// encoded image or a multipart form with the image in the "frame" field.
func (s *Server) framesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	body, closeBody, err := s.frameBody(r, maxBytes)
	if err != nil {
		frameRequestsTotal.WithLabelValues(transportHTTP, resultRejected).Inc()
		s.writeUploadError(w, err)
		return
	}
	defer closeBody()

	o, err := s.requestOrientation(r)
	if err != nil {
		frameRequestsTotal.WithLabelValues(transportHTTP, resultRejected).Inc()
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := requestFormat(r)
	if !slices.Contains(flatten.Formats, format) {
		frameRequestsTotal.WithLabelValues(transportHTTP, resultRejected).Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Unsupported format %q (must be one of: %s)", format, strings.Join(flatten.Formats, ", ")), http.StatusBadRequest)
		return
	}

	fr, meta, err := frame.Decode(body, o, maxBytes)
	if err != nil {
		frameRequestsTotal.WithLabelValues(transportHTTP, resultRejected).Inc()
		s.writeUploadError(w, err)
		return
	}
	uploadSizeBytes.Observe(float64(meta.SizeBytes))

	if s.rateLimiter != nil && r.ContentLength <= 0 {
		if err := s.rateLimiter.ChargeData(getClientIP(r), meta.SizeBytes); err != nil {
			recordRateLimitHit(err)
			frameRequestsTotal.WithLabelValues(transportHTTP, resultRejected).Inc()
			s.handleRateLimitError(w, err)
			return
		}
	}

	ctx, cancel := s.frameContext(r.Context())
	defer cancel()
	doc, diags := s.processor.Process(ctx, fr)

	result := resultDocument
	if doc == nil {
		result = resultNone
	}
	frameRequestsTotal.WithLabelValues(transportHTTP, result).Inc()
	s.logger.Debug("Frame request handled",
		"request_id", RequestID(r.Context()),
		"orientation", o.String(),
		"format", meta.Format,
		"width", meta.Width,
		"height", meta.Height,
		"result", result)

	out, err := flatten.Render(doc, format, s.pretty)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Formatting failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set(FrameResultHeader, result)
	w.Header().Set(FrameDiagnosticsHeader, strconv.Itoa(len(diags)))
	w.Header().Set("Content-Type", contentType(format))
	if _, err := io.WriteString(w, out); err != nil {
		s.logger.Error("Failed to write frame response", "error", err)
	}
}

// frameBody returns the reader holding the encoded frame.
func (s *Server) frameBody(r *http.Request, maxBytes int64) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, nil, err
	}
	file, _, err := r.FormFile(frameFormField)
	if err != nil {
		return nil, nil, fmt.Errorf("no %q file provided: %w", frameFormField, err)
	}
	return file, func() { _ = file.Close() }, nil
}

// requestOrientation reads the orientation query or form value, falling
// back to the configured default.
func (s *Server) requestOrientation(r *http.Request) (orientation.Orientation, error) {
	raw := r.URL.Query().Get("orientation")
	if raw == "" && r.MultipartForm != nil {
		raw = r.FormValue("orientation")
	}
	if raw == "" {
		return s.defaultOrientation, nil
	}
	o, err := orientation.Parse(raw)
	if err != nil {
		return orientation.Up, fmt.Errorf("invalid orientation: %w", err)
	}
	return o, nil
}

func requestFormat(r *http.Request) string {
	format := r.URL.Query().Get("format")
	if format == "" && r.MultipartForm != nil {
		format = r.FormValue("format")
	}
	if format == "" {
		return flatten.FormatJSON
	}
	return strings.ToLower(format)
}

func contentType(format string) string {
	switch format {
	case flatten.FormatYAML:
		return "application/x-yaml"
	case flatten.FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// writeUploadError maps frame read failures to 413 or 400.
func (s *Server) writeUploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, frame.ErrTooLarge) {
		s.writeErrorResponse(w, "Frame too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.writeErrorResponse(w, fmt.Sprintf("Invalid frame: %v", err), http.StatusBadRequest)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: message}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
