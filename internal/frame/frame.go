// Package frame loads camera frames from files or byte streams and pairs
// them with the orientation reported by the frame source.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/frameocr/internal/orientation"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Frame is one image buffer with its device orientation.
type Frame struct {
	Image       image.Image
	Orientation orientation.Orientation
}

// Metadata captures lightweight source and pixel information.
type Metadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// SupportedExtensions lists the file extensions Load accepts.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// ErrTooLarge is returned when the encoded frame exceeds the size limit
// or decodes to more than MaxPixels pixels.
var ErrTooLarge = errors.New("frame exceeds size limit")

// MaxPixels bounds the decoded size of a frame. The header is checked
// before any pixel data is decoded.
var MaxPixels = 64 << 20

// LoadError describes a failure to obtain a frame.
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("frame %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("frame %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Load opens and decodes an image file. maxBytes <= 0 disables the size check.
func Load(path string, o orientation.Orientation, maxBytes int64) (Frame, Metadata, error) {
	if path == "" {
		return Frame{}, Metadata{}, &LoadError{Op: "load", Err: errors.New("empty path")}
	}
	if !IsSupported(path) {
		return Frame{}, Metadata{}, &LoadError{Op: "load", Path: path, Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}

	f, err := os.Open(path) //nolint:gosec // G304: frame paths come from the operator
	if err != nil {
		return Frame{}, Metadata{}, &LoadError{Op: "load", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	fr, meta, err := Decode(f, o, maxBytes)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return Frame{}, Metadata{}, err
	}
	meta.Path = path
	return fr, meta, nil
}

// Decode reads an encoded image from r. maxBytes <= 0 disables the size check.
func Decode(r io.Reader, o orientation.Orientation, maxBytes int64) (Frame, Metadata, error) {
	if r == nil {
		return Frame{}, Metadata{}, &LoadError{Op: "read", Err: errors.New("nil reader")}
	}
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Frame{}, Metadata{}, &LoadError{Op: "read", Err: err}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Frame{}, Metadata{}, &LoadError{Op: "read", Err: fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)}
	}
	if len(data) == 0 {
		return Frame{}, Metadata{}, &LoadError{Op: "read", Err: errors.New("empty frame")}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, Metadata{}, &LoadError{Op: "decode", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(MaxPixels) {
		return Frame{}, Metadata{}, &LoadError{Op: "decode", Err: fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, Metadata{}, &LoadError{Op: "decode", Err: err}
	}

	b := img.Bounds()
	return Frame{Image: img, Orientation: o}, Metadata{
		Format:    format,
		SizeBytes: int64(len(data)),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// MaxBytes converts a megabyte limit to bytes; mb <= 0 means no limit.
func MaxBytes(mb int) int64 {
	if mb <= 0 {
		return 0
	}
	return int64(mb) << 20
}
