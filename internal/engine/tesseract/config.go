package tesseract

import (
	"log/slog"

	"github.com/MeKo-Tech/frameocr/internal/engine"
)

// Config controls the Tesseract engine.
type Config struct {
	// Languages are Tesseract language codes such as "eng" or "deu".
	Languages []string
	// TessdataPrefix overrides the tessdata directory when non-empty.
	TessdataPrefix string
	// PageSegMode is passed to Tesseract (3 = fully automatic).
	PageSegMode int
	// Whitelist restricts recognized characters when non-empty.
	Whitelist string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Languages:   []string{"eng"},
		PageSegMode: 3,
	}
}

// Factory returns an engine.Factory that builds a Tesseract engine from cfg.
func Factory(cfg Config, logger *slog.Logger) engine.Factory {
	return func() (engine.Engine, error) {
		e, err := New(cfg, logger)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}
