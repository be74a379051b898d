// Package transform tracks the user photo's local transform inside a
// placeholder and the pointer interaction that edits it.
//
// Local space is centered on the placeholder and measured in source pixels.
// The photo is rotated and scaled about that center and then translated along
// the screen axes, so a drag always follows the pointer whatever the current
// rotation.
package transform

import (
	"math"

	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/types"
)

// Limits applied by SetScale and SetRotation.
const (
	MinScale    = 0.5
	MaxScale    = 2.0
	MinRotation = -180.0
	MaxRotation = 180.0
)

// Transform is the photo's placement in local space.
type Transform struct {
	TranslateX      float64 `json:"translate_x"`
	TranslateY      float64 `json:"translate_y"`
	Scale           float64 `json:"scale"`
	RotationDegrees float64 `json:"rotation_degrees"`
}

// Default returns the identity placement.
func Default() Transform {
	return Transform{Scale: 1}
}

// Translate returns the translation as a point.
func (t Transform) Translate() geometry.Point {
	return geometry.Point{X: t.TranslateX, Y: t.TranslateY}
}

// Radians returns the rotation in radians.
func (t Transform) Radians() float64 {
	return t.RotationDegrees * math.Pi / 180
}

// Apply maps a point of the unplaced photo (local space, photo centered on
// the origin) to its placed position in local space: rotate, scale, then
// translate.
func (t Transform) Apply(p geometry.Point) geometry.Point {
	sin, cos := math.Sincos(t.Radians())
	return geometry.Point{
		X: t.Scale*(cos*p.X-sin*p.Y) + t.TranslateX,
		Y: t.Scale*(sin*p.X+cos*p.Y) + t.TranslateY,
	}
}

// FitSubject returns a transform that puts the center of a normalized
// subject box (relative to the photo) on the placeholder center and scales
// the photo so the subject fills most of a w×h placeholder.
func FitSubject(box types.Box, w, h float64) Transform {
	t := Default()
	if box.Empty() {
		return t
	}
	t.Scale = clamp(0.8/math.Max(box.W, box.H), MinScale, MaxScale)
	cx, cy := box.Center()
	// The photo is stretched over the w×h box, so the subject center sits at
	// ((cx-0.5)w, (cy-0.5)h) before placement.
	t.TranslateX = -t.Scale * (cx - 0.5) * w
	t.TranslateY = -t.Scale * (cy - 0.5) * h
	return t
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
