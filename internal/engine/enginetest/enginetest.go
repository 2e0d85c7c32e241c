// Package enginetest provides a scripted engine for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"

	"github.com/MeKo-Tech/frameocr/internal/engine"
)

// Response is one scripted Recognize outcome.
type Response struct {
	Text *engine.Text
	Err  error
}

// Engine replays scripted responses in order. When the script is
// exhausted it keeps returning Fallback (or an empty result).
type Engine struct {
	mu       sync.Mutex
	script   []Response
	Fallback Response
	calls    []engine.OrientedImage
	closed   bool
}

// New returns an engine that replays responses.
func New(responses ...Response) *Engine {
	return &Engine{script: responses}
}

// Returning returns an engine that always answers with text.
func Returning(text *engine.Text) *Engine {
	return &Engine{Fallback: Response{Text: text}}
}

// Failing returns an engine that always fails with err.
func Failing(err error) *Engine {
	if err == nil {
		err = errors.New("scripted failure")
	}
	return &Engine{Fallback: Response{Err: err}}
}

func (e *Engine) Name() string { return "scripted" }

// Recognize records the call and returns the next scripted response.
func (e *Engine) Recognize(ctx context.Context, img engine.OrientedImage) (*engine.Text, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, img)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := e.Fallback
	if len(e.script) > 0 {
		resp = e.script[0]
		e.script = e.script[1:]
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	if resp.Text == nil {
		return &engine.Text{}, nil
	}
	return resp.Text, nil
}

// Push appends responses to the script.
func (e *Engine) Push(responses ...Response) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.script = append(e.script, responses...)
}

// Calls returns the oriented images seen so far.
func (e *Engine) Calls() []engine.OrientedImage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.OrientedImage(nil), e.calls...)
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
