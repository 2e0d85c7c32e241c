// Package flatten turns an engine recognition result into the per-frame
// output document. Malformed language entries and corner points are skipped
// and reported as diagnostics; they never abort the document.
package flatten

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/geometry"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
)

// Flatten builds the document for one recognized frame. applied is the
// orientation handed to the engine and original the device orientation.
// A nil text yields a document with no text and no blocks.
func Flatten(text *engine.Text, applied, original orientation.Orientation) (*Document, Diagnostics) {
	var diags Diagnostics
	doc := &Document{Result: Result{
		Blocks:              []Block{},
		Orientation:         orientation.Label(applied),
		OriginalOrientation: orientation.Label(original),
	}}
	if text == nil {
		return doc, diags
	}

	doc.Result.Text = text.Text
	doc.Result.Blocks = make([]Block, 0, len(text.Blocks))
	for i, b := range text.Blocks {
		doc.Result.Blocks = append(doc.Result.Blocks, flattenBlock(b, fmt.Sprintf("blocks[%d]", i), &diags))
	}
	return doc, diags
}

func flattenBlock(b engine.Block, path string, diags *Diagnostics) Block {
	out := Block{
		Text:                b.Text,
		RecognizedLanguages: Languages(b.RecognizedLanguages, path+".recognizedLanguages", diags),
		CornerPoints:        CornerPoints(b.CornerPoints, path+".cornerPoints", diags),
		Frame:               frameOf(b.Frame),
		BoundingBox:         geometry.Bounds(b.Frame),
		Lines:               make([]Line, 0, len(b.Lines)),
	}
	for i, l := range b.Lines {
		out.Lines = append(out.Lines, flattenLine(l, fmt.Sprintf("%s.lines[%d]", path, i), diags))
	}
	return out
}

func flattenLine(l engine.Line, path string, diags *Diagnostics) Line {
	out := Line{
		Text:                l.Text,
		RecognizedLanguages: Languages(l.RecognizedLanguages, path+".recognizedLanguages", diags),
		CornerPoints:        CornerPoints(l.CornerPoints, path+".cornerPoints", diags),
		Frame:               frameOf(l.Frame),
		BoundingBox:         geometry.Bounds(l.Frame),
		Elements:            make([]Element, 0, len(l.Elements)),
	}
	for i, e := range l.Elements {
		out.Elements = append(out.Elements, flattenElement(e, fmt.Sprintf("%s.elements[%d]", path, i), diags))
	}
	return out
}

func flattenElement(e engine.Element, path string, diags *Diagnostics) Element {
	return Element{
		Text:         e.Text,
		CornerPoints: CornerPoints(e.CornerPoints, path+".cornerPoints", diags),
		Frame:        frameOf(e.Frame),
		BoundingBox:  geometry.Bounds(e.Frame),
		Symbols:      []Symbol{},
	}
}

// frameOf describes r, treating a missing rectangle as the zero rectangle.
func frameOf(r *geometry.Rect) geometry.FrameDescriptor {
	if r == nil {
		return geometry.Frame(geometry.Rect{})
	}
	return geometry.Frame(*r)
}

// Languages returns the language codes in order, skipping entries that
// carry no code.
func Languages(langs []engine.Language, path string, diags *Diagnostics) []string {
	out := make([]string, 0, len(langs))
	for i, l := range langs {
		if l.Code == "" {
			diags.add(MalformedLanguageEntry, fmt.Sprintf("%s[%d]", path, i), "no language code")
			continue
		}
		out = append(out, l.Code)
	}
	return out
}

// CornerPoints returns the entries that can be read as 2D points, in order.
func CornerPoints(points []any, path string, diags *Diagnostics) []geometry.Point {
	out := make([]geometry.Point, 0, len(points))
	for i, v := range points {
		p, ok := toPoint(v)
		if !ok {
			diags.add(MalformedCornerPoint, fmt.Sprintf("%s[%d]", path, i), "cannot convert %T to a point", v)
			continue
		}
		out = append(out, p)
	}
	return out
}

func toPoint(v any) (geometry.Point, bool) {
	var p geometry.Point
	switch t := v.(type) {
	case geometry.Point:
		p = t
	case *geometry.Point:
		if t == nil {
			return p, false
		}
		p = *t
	case image.Point:
		p = geometry.Point{X: float64(t.X), Y: float64(t.Y)}
	case *image.Point:
		if t == nil {
			return p, false
		}
		p = geometry.Point{X: float64(t.X), Y: float64(t.Y)}
	case [2]float64:
		p = geometry.Point{X: t[0], Y: t[1]}
	case []float64:
		if len(t) != 2 {
			return p, false
		}
		p = geometry.Point{X: t[0], Y: t[1]}
	case map[string]float64:
		x, okX := t["x"]
		y, okY := t["y"]
		if !okX || !okY {
			return p, false
		}
		p = geometry.Point{X: x, Y: y}
	case map[string]any:
		x, okX := number(t["x"])
		y, okY := number(t["y"])
		if !okX || !okY {
			return p, false
		}
		p = geometry.Point{X: x, Y: y}
	default:
		return p, false
	}
	return p, p.Finite()
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
