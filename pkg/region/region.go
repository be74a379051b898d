// Package region models the photo placeholder drawn on a banner.
//
// A Region is a value: every operation takes the current region and returns
// a new one, so interactive dragging never accumulates drift and the input is
// never modified. All coordinates are source pixels.
package region

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/types"
)

// Shape is the clip shape of the placeholder.
type Shape int

const (
	Rectangle Shape = iota
	Circle
)

func (s Shape) String() string {
	switch s {
	case Rectangle:
		return "rectangle"
	case Circle:
		return "circle"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape parses "rectangle" or "circle" (case-insensitive).
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangle", "rect":
		return Rectangle, nil
	case "circle":
		return Circle, nil
	default:
		return Rectangle, &types.ValidationError{Field: "shape", Reason: fmt.Sprintf("unknown shape %q", s)}
	}
}

func (s Shape) MarshalJSON() ([]byte, error) {
	if s != Rectangle && s != Circle {
		return nil, &types.ValidationError{Field: "shape", Reason: fmt.Sprintf("unknown shape %d", int(s))}
	}
	return json.Marshal(s.String())
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("shape must be a string: %w", err)
	}
	parsed, err := ParseShape(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Region is the placeholder box in source-pixel coordinates.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Shape  Shape   `json:"shape"`
}

// Center returns the center of the box.
func (r Region) Center() geometry.Point {
	return geometry.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Rect returns the box as a geometry.Rect.
func (r Region) Rect() geometry.Rect {
	return geometry.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Radius returns the clip radius of a circle placeholder: the circle is
// inscribed in the box, never stretched to an ellipse.
func (r Region) Radius() float64 {
	return math.Min(r.Width, r.Height) / 2
}

// Bounds returns the smallest integer rectangle covering the box.
func (r Region) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)),
		int(math.Ceil(r.Y+r.Height)),
	)
}

// Config holds the sizing rules for placeholders.
type Config struct {
	// MinSize is the smallest allowed width and height.
	MinSize float64 `json:"min_size"`
	// DefaultFraction sizes a new box relative to the smaller source side.
	DefaultFraction float64 `json:"default_fraction"`
}

// DefaultConfig returns the stock sizing rules.
func DefaultConfig() Config {
	return Config{MinSize: 50, DefaultFraction: 0.3}
}

// minFor is the effective floor for one axis; a source side smaller than
// MinSize becomes the floor itself.
func (c Config) minFor(sourceDim float64) float64 {
	return math.Min(math.Max(c.MinSize, 0), sourceDim)
}

// Create returns a region for a source of the given size. With no initial
// box, a square of DefaultFraction of the smaller source side is centered.
// An initial box is repaired with Clamp.
func Create(source geometry.Size, initial *Region, cfg Config) Region {
	if initial != nil {
		return Clamp(*initial, source, cfg)
	}
	side := math.Min(source.W, source.H) * cfg.DefaultFraction
	w := clamp(side, cfg.minFor(source.W), source.W)
	h := clamp(side, cfg.minFor(source.H), source.H)
	return Region{
		X:      (source.W - w) / 2,
		Y:      (source.H - h) / 2,
		Width:  w,
		Height: h,
		Shape:  Rectangle,
	}
}

// Resize clamps the requested dimensions to [minSize, sourceDim] and pulls
// the origin back so the box stays inside the source.
func Resize(r Region, width, height float64, source geometry.Size, cfg Config) Region {
	out := r
	out.Width = clamp(orZero(width), cfg.minFor(source.W), source.W)
	out.Height = clamp(orZero(height), cfg.minFor(source.H), source.H)
	out.X = clamp(orZero(r.X), 0, source.W-out.Width)
	out.Y = clamp(orZero(r.Y), 0, source.H-out.Height)
	return out
}

// Move clamps the new origin so the box never leaves the source, not even
// partially.
func Move(r Region, x, y float64, source geometry.Size) Region {
	out := r
	out.X = clamp(orZero(x), 0, math.Max(0, source.W-r.Width))
	out.Y = clamp(orZero(y), 0, math.Max(0, source.H-r.Height))
	return out
}

// SetShape replaces the shape without touching the geometry.
func SetShape(r Region, shape Shape) Region {
	r.Shape = shape
	return r
}

// Clamp repairs any region so that it satisfies the invariants.
func Clamp(r Region, source geometry.Size, cfg Config) Region {
	if r.Shape != Rectangle && r.Shape != Circle {
		r.Shape = Rectangle
	}
	r = Resize(r, r.Width, r.Height, source, cfg)
	return Move(r, r.X, r.Y, source)
}

// Validate reports the first invariant the region violates.
func Validate(r Region, source geometry.Size, cfg Config) error {
	if !source.Valid() {
		return &types.ValidationError{Field: "source", Reason: fmt.Sprintf("invalid source size %vx%v", source.W, source.H)}
	}
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &types.ValidationError{Field: "geometry", Reason: "non-finite value"}
		}
	}
	switch {
	case r.X < 0:
		return &types.ValidationError{Field: "x", Reason: "must not be negative"}
	case r.Y < 0:
		return &types.ValidationError{Field: "y", Reason: "must not be negative"}
	case r.Width < cfg.minFor(source.W):
		return &types.ValidationError{Field: "width", Reason: fmt.Sprintf("below minimum %v", cfg.minFor(source.W))}
	case r.Height < cfg.minFor(source.H):
		return &types.ValidationError{Field: "height", Reason: fmt.Sprintf("below minimum %v", cfg.minFor(source.H))}
	case r.X+r.Width > source.W:
		return &types.ValidationError{Field: "width", Reason: "box exceeds source width"}
	case r.Y+r.Height > source.H:
		return &types.ValidationError{Field: "height", Reason: "box exceeds source height"}
	case r.Shape != Rectangle && r.Shape != Circle:
		return &types.ValidationError{Field: "shape", Reason: fmt.Sprintf("unknown shape %d", int(r.Shape))}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
