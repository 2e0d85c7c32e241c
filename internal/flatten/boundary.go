package flatten

import "github.com/MeKo-Tech/frameocr/internal/geometry"

// Map renders the document in the generic form handed across the plugin
// boundary: nested map[string]any and []any with string and float64
// leaves. An absent bounding box is kept as a nil value.
func (d *Document) Map() map[string]any {
	if d == nil {
		return nil
	}
	blocks := make([]any, 0, len(d.Result.Blocks))
	for _, b := range d.Result.Blocks {
		blocks = append(blocks, b.Map())
	}
	return map[string]any{
		"result": map[string]any{
			"text":           d.Result.Text,
			"blocks":         blocks,
			"orientation":    d.Result.Orientation,
			"og-orientation": d.Result.OriginalOrientation,
		},
	}
}

// Map renders the block and its lines.
func (b Block) Map() map[string]any {
	lines := make([]any, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, l.Map())
	}
	return map[string]any{
		"text":                b.Text,
		"recognizedLanguages": stringsAny(b.RecognizedLanguages),
		"cornerPoints":        pointsAny(b.CornerPoints),
		"frame":               frameAny(b.Frame),
		"boundingBox":         boxAny(b.BoundingBox),
		"lines":               lines,
	}
}

// Map renders the line and its elements.
func (l Line) Map() map[string]any {
	elements := make([]any, 0, len(l.Elements))
	for _, e := range l.Elements {
		elements = append(elements, e.Map())
	}
	return map[string]any{
		"text":                l.Text,
		"recognizedLanguages": stringsAny(l.RecognizedLanguages),
		"cornerPoints":        pointsAny(l.CornerPoints),
		"frame":               frameAny(l.Frame),
		"boundingBox":         boxAny(l.BoundingBox),
		"elements":            elements,
	}
}

// Map renders the element.
func (e Element) Map() map[string]any {
	return map[string]any{
		"text":         e.Text,
		"cornerPoints": pointsAny(e.CornerPoints),
		"frame":        frameAny(e.Frame),
		"boundingBox":  boxAny(e.BoundingBox),
		"symbols":      []any{},
	}
}

func stringsAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func pointsAny(pts []geometry.Point) []any {
	out := make([]any, len(pts))
	for i, p := range pts {
		out[i] = map[string]any{"x": p.X, "y": p.Y}
	}
	return out
}

func frameAny(f geometry.FrameDescriptor) map[string]any {
	return map[string]any{
		"x":               f.X,
		"y":               f.Y,
		"width":           f.Width,
		"height":          f.Height,
		"boundingCenterX": f.BoundingCenterX,
		"boundingCenterY": f.BoundingCenterY,
	}
}

func boxAny(b *geometry.BoundingBox) any {
	if b == nil {
		return nil
	}
	return map[string]any{
		"left":   b.Left,
		"top":    b.Top,
		"right":  b.Right,
		"bottom": b.Bottom,
	}
}
