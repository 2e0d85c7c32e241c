// Package geometry converts recognized-text rectangles into the frame and
// bounding-box descriptors consumed downstream.
//
// Both descriptors keep legacy coordinate conventions: the frame descriptor
// reports a center-mirrored x/y, and the bounding box uses a Y-up axis where
// top is the largest Y and bottom the smallest.
package geometry

import "math"

// Point is a 2D point in engine pixel coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Rect is an origin-plus-size rectangle. Negative sizes are allowed; the
// extent accessors standardize them the way CGRect does.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect builds a Rect from two opposite corners.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// W returns the absolute width.
func (r Rect) W() float64 { return math.Abs(r.Width) }

// H returns the absolute height.
func (r Rect) H() float64 { return math.Abs(r.Height) }

func (r Rect) MinX() float64 { return math.Min(r.X, r.X+r.Width) }
func (r Rect) MaxX() float64 { return math.Max(r.X, r.X+r.Width) }
func (r Rect) MidX() float64 { return r.MinX() + r.W()/2 }
func (r Rect) MinY() float64 { return math.Min(r.Y, r.Y+r.Height) }
func (r Rect) MaxY() float64 { return math.Max(r.Y, r.Y+r.Height) }
func (r Rect) MidY() float64 { return r.MinY() + r.H()/2 }

// Center returns the rectangle center.
func (r Rect) Center() Point {
	return Point{X: r.MidX(), Y: r.MidY()}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X <= r.MaxX() && p.Y >= r.MinY() && p.Y <= r.MaxY()
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	return NewRect(
		math.Min(r.MinX(), o.MinX()),
		math.Min(r.MinY(), o.MinY()),
		math.Max(r.MaxX(), o.MaxX()),
		math.Max(r.MaxY(), o.MaxY()),
	)
}

// Corners returns the four corners clockwise from the minimum corner.
func (r Rect) Corners() []Point {
	return []Point{
		{X: r.MinX(), Y: r.MinY()},
		{X: r.MaxX(), Y: r.MinY()},
		{X: r.MaxX(), Y: r.MaxY()},
		{X: r.MinX(), Y: r.MaxY()},
	}
}
