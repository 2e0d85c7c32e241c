// Package tesseract provides a recognition engine backed by Tesseract via
// gosseract.
//
// The gosseract binding needs libtesseract and cgo, so it is only compiled
// with the "tesseract" build tag:
//
//	go build -tags tesseract ./cmd/frameocr
//
// Without the tag New returns engine.ErrUnavailable and every frame yields
// no result.
//
// Tesseract does not accept an orientation tag, so the engine rotates the
// frame upright before recognition. Coordinates are reported in the pixel
// space of the upright image.
//
// A gosseract client is not safe for concurrent use. The engine owns one
// client and serializes Recognize calls with its own mutex.
package tesseract
