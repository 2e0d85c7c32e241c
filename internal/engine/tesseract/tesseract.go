//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/mempool"
	"github.com/otiai10/gosseract/v2"
)

// Available reports whether the Tesseract binding is compiled in.
const Available = true

// Engine recognizes text with a single long-lived gosseract client.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	client *gosseract.Client
	langs  []engine.Language
	logger *slog.Logger
}

// New creates an engine and configures its client.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultConfig().Languages
	}

	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(cfg.Languages...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if cfg.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}

	logger.Debug("Tesseract engine ready", "version", gosseract.Version(), "languages", cfg.Languages)

	return &Engine{
		cfg:    cfg,
		client: client,
		langs:  languages(cfg.Languages),
		logger: logger,
	}, nil
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs Tesseract on the upright frame and nests the block, line
// and word boxes into a hierarchy.
func (e *Engine) Recognize(ctx context.Context, img engine.OrientedImage) (*engine.Text, error) {
	buf, err := encode(img)
	if err != nil {
		return nil, engine.Fail(e.Name(), err)
	}
	defer mempool.PutBuffer(buf)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, engine.Fail(e.Name(), err)
	}
	if e.client == nil {
		return nil, engine.Fail(e.Name(), engine.ErrUnavailable)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, engine.Fail(e.Name(), fmt.Errorf("set image: %w", err))
	}

	page, err := e.client.Text()
	if err != nil {
		return nil, engine.Fail(e.Name(), err)
	}

	blocks, err := e.boxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, engine.Fail(e.Name(), err)
	}
	lines, err := e.boxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, engine.Fail(e.Name(), err)
	}
	words, err := e.boxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, engine.Fail(e.Name(), err)
	}

	return assemble(page, blocks, lines, words, e.langs), nil
}

func (e *Engine) boxes(level gosseract.PageIteratorLevel) ([]box, error) {
	raw, err := e.client.GetBoundingBoxes(level)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes at level %d: %w", level, err)
	}
	out := make([]box, 0, len(raw))
	for _, b := range raw {
		out = append(out, box{Rect: b.Box, Text: b.Word})
	}
	return out, nil
}

// Close releases the client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
