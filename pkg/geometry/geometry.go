// Package geometry converts between full-resolution source coordinates and
// a scaled display surface.
//
// All functions are pure and safe for concurrent use. The X and Y axes are
// scaled independently; whoever sizes the display surface is responsible for
// preserving the aspect ratio (see FitWithin).
package geometry

import "math"

// Point represents a 2D point with floating-point coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Valid reports whether both dimensions are positive and finite.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0 && !math.IsInf(s.W, 0) && !math.IsInf(s.H, 0)
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside the rectangle (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Min returns the top-left corner.
func (r Rect) Min() Point {
	return Point{X: r.X, Y: r.Y}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ScaleFactors returns displayW/sourceW and displayH/sourceH.
func ScaleFactors(source, display Size) (float64, float64) {
	return display.W / source.W, display.H / source.H
}

// ToDisplay maps a point in source space onto the display surface.
func ToDisplay(p Point, source, display Size) Point {
	sx, sy := ScaleFactors(source, display)
	return Point{X: p.X * sx, Y: p.Y * sy}
}

// ToSource maps a point on the display surface back to source space.
func ToSource(p Point, source, display Size) Point {
	sx, sy := ScaleFactors(source, display)
	return Point{X: p.X / sx, Y: p.Y / sy}
}

// FitWithin returns the display size for source bounded by maxW×maxH with
// the aspect ratio preserved. The width is taken first and the height caps it.
func FitWithin(source Size, maxW, maxH float64) Size {
	if !source.Valid() || maxW <= 0 || maxH <= 0 {
		return Size{}
	}
	ratio := source.W / source.H
	w := maxW
	h := w / ratio
	if h > maxH {
		h = maxH
		w = h * ratio
	}
	return Size{W: w, H: h}
}

// Mapper bundles a source size with the display surface it is shown on.
type Mapper struct {
	Source  Size
	Display Size
}

// NewMapper returns a Mapper for the given sizes.
func NewMapper(source, display Size) Mapper {
	return Mapper{Source: source, Display: display}
}

// ToDisplay maps a source point to display space.
func (m Mapper) ToDisplay(p Point) Point {
	return ToDisplay(p, m.Source, m.Display)
}

// ToSource maps a display point to source space.
func (m Mapper) ToSource(p Point) Point {
	return ToSource(p, m.Source, m.Display)
}

// RectToDisplay maps a source rectangle to display space.
func (m Mapper) RectToDisplay(r Rect) Rect {
	sx, sy := ScaleFactors(m.Source, m.Display)
	return Rect{X: r.X * sx, Y: r.Y * sy, Width: r.Width * sx, Height: r.Height * sy}
}

