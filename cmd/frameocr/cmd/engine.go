package cmd

import (
	"log/slog"

	"github.com/MeKo-Tech/frameocr/internal/config"
	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/engine/tesseract"
	"github.com/MeKo-Tech/frameocr/internal/frameproc"
)

// engineFactory selects the engine named by cfg. The "none" engine has no
// factory, so every frame yields a null document.
func engineFactory(cfg *config.Config, logger *slog.Logger) engine.Factory {
	switch cfg.Engine.Name {
	case config.EngineTesseract:
		return tesseract.Factory(cfg.ToTesseractConfig(), logger)
	default:
		return nil
	}
}

// newProcessor builds the frame processor around the process-wide engine.
func newProcessor(cfg *config.Config, logger *slog.Logger) *frameproc.Processor {
	return frameproc.NewShared(engineFactory(cfg, logger),
		frameproc.WithLogger(logger),
		frameproc.WithTimeout(cfg.RequestTimeout()))
}
