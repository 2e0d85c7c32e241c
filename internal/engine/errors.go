package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the engine is not compiled in or
	// cannot be initialized.
	ErrUnavailable = errors.New("recognition engine unavailable")
	// ErrUnsupportedBuffer is returned for frame buffers the engine cannot read.
	ErrUnsupportedBuffer = errors.New("unsupported frame buffer")
	// ErrNilImage is returned when the oriented image carries no buffer.
	ErrNilImage = errors.New("nil image")
	// ErrPanicked is wrapped around a panic recovered from an engine.
	ErrPanicked = errors.New("engine panicked")
)

// RecognitionError reports a failed engine invocation.
type RecognitionError struct {
	Engine string
	Err    error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("%s recognition failed: %v", e.Engine, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Fail wraps err as a RecognitionError for the named engine.
func Fail(name string, err error) error {
	if err == nil {
		return nil
	}
	var re *RecognitionError
	if errors.As(err, &re) {
		return err
	}
	return &RecognitionError{Engine: name, Err: err}
}
