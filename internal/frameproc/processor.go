// Package frameproc runs one camera frame through the text engine and
// flattens the result into the per-frame document.
package frameproc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
)

// Processor turns frames into documents. It holds no per-frame state and
// adds no locking of its own; concurrent use relies on the engine.
type Processor struct {
	resolve func() (engine.Engine, error)
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for failures and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTimeout bounds each recognition call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) { p.timeout = d }
}

// New returns a processor bound to e.
func New(e engine.Engine, opts ...Option) *Processor {
	return newProcessor(func() (engine.Engine, error) {
		if e == nil {
			return nil, engine.ErrUnavailable
		}
		return e, nil
	}, opts)
}

// NewShared returns a processor that uses the process-wide engine built
// by factory on first use.
func NewShared(factory engine.Factory, opts ...Option) *Processor {
	return newProcessor(func() (engine.Engine, error) {
		return engine.Shared(factory)
	}, opts)
}

func newProcessor(resolve func() (engine.Engine, error), opts []Option) *Processor {
	p := &Processor{resolve: resolve, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process recognizes f and returns its document. Engine failures are
// logged and yield a nil document; the next call is unaffected.
func (p *Processor) Process(ctx context.Context, f frame.Frame) (*flatten.Document, flatten.Diagnostics) {
	start := time.Now()
	applied := orientation.ToEngine(f.Orientation)

	eng, err := p.resolve()
	if err != nil {
		framesTotal.WithLabelValues(statusUnavailable).Inc()
		p.logger.Error("Text engine unavailable", "error", err)
		return nil, nil
	}

	text, err := p.recognize(ctx, eng, engine.OrientedImage{Image: f.Image, Orientation: applied})
	frameDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		framesTotal.WithLabelValues(statusFailed).Inc()
		p.logger.Error("Text recognition failed",
			"engine", eng.Name(),
			"orientation", applied.String(),
			"error", err)
		return nil, nil
	}

	doc, diags := flatten.Flatten(text, applied, f.Orientation)
	framesTotal.WithLabelValues(statusOK).Inc()
	frameBlocks.Observe(float64(len(doc.Result.Blocks)))
	for _, d := range diags {
		diagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
	}
	diags.Log(p.logger)

	p.logger.Debug("Frame processed",
		"orientation", applied.String(),
		"og_orientation", f.Orientation.String(),
		"blocks", len(doc.Result.Blocks),
		"diagnostics", len(diags),
		"duration", time.Since(start))
	return doc, diags
}

// recognize invokes the engine. A panic inside the engine is turned into
// a RecognitionError like any other failure.
func (p *Processor) recognize(ctx context.Context, eng engine.Engine, img engine.OrientedImage) (text *engine.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			framesPanicked.Inc()
			text, err = nil, engine.Fail(eng.Name(), fmt.Errorf("%w: %v", engine.ErrPanicked, r))
		}
	}()

	if img.Image == nil {
		return nil, engine.Fail(eng.Name(), engine.ErrNilImage)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	text, err = eng.Recognize(ctx, img)
	if err != nil {
		return nil, engine.Fail(eng.Name(), err)
	}
	return text, nil
}

// Callback is the boundary form of Process: the document as generic
// maps and slices, or nil when no document was produced.
func (p *Processor) Callback(ctx context.Context, f frame.Frame) any {
	doc, _ := p.Process(ctx, f)
	if doc == nil {
		return nil
	}
	return doc.Map()
}
