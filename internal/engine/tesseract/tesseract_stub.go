//go:build !tesseract

package tesseract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/frameocr/internal/engine"
)

// Available reports whether the Tesseract binding is compiled in.
const Available = false

// Engine is a placeholder used when the binary is built without the
// tesseract tag.
type Engine struct{}

// New always fails with engine.ErrUnavailable.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	return nil, fmt.Errorf("tesseract support not compiled in (build with -tags tesseract): %w", engine.ErrUnavailable)
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, img engine.OrientedImage) (*engine.Text, error) {
	return nil, engine.Fail(e.Name(), engine.ErrUnavailable)
}

func (e *Engine) Close() error { return nil }
