// Package engine defines the contract between the frame adapter and a
// text-recognition engine, and holds the process-wide engine handle.
package engine

import (
	"context"
	"image"

	"github.com/MeKo-Tech/frameocr/internal/geometry"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
)

// Engine recognizes text in an oriented image. Implementations document
// their own concurrency guarantees; callers add no locking around them.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img OrientedImage) (*Text, error)
	Close() error
}

// OrientedImage pairs a frame buffer with the orientation assigned for
// recognition. It is built per call and never shared.
type OrientedImage struct {
	Image       image.Image
	Orientation orientation.Orientation
}

// Text is the engine result for one image.
type Text struct {
	Text   string
	Blocks []Block
}

// Language is one recognized-language entry. An empty Code means the
// engine reported the entry without a code.
type Language struct {
	Code string
}

// Block is the coarsest recognized region.
type Block struct {
	Text                string
	Frame               *geometry.Rect
	CornerPoints        []any
	RecognizedLanguages []Language
	Lines               []Line
}

// Line is a line of text inside a block.
type Line struct {
	Text                string
	Frame               *geometry.Rect
	CornerPoints        []any
	RecognizedLanguages []Language
	Elements            []Element
}

// Element is a word-level region.
type Element struct {
	Text         string
	Frame        *geometry.Rect
	CornerPoints []any
}

// Points converts typed corners into the engine-native []any form.
func Points(pts []geometry.Point) []any {
	out := make([]any, len(pts))
	for i, p := range pts {
		out[i] = p
	}
	return out
}
