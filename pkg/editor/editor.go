// Package editor lets an operator place the photo placeholder on a banner
// while only ever looking at a scaled-down preview of it.
//
// Pointer positions arrive in display space and are mapped to source space
// through a geometry.Mapper before the pure region operations run, so dragged
// and typed edits go through exactly the same clamping.
package editor

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/region"
)

// Config holds configuration for the editor surface
type Config struct {
	MaxDisplayWidth  float64       `json:"max_display_width"`
	MaxDisplayHeight float64       `json:"max_display_height"`
	HandleSize       float64       `json:"handle_size"` // resize handle, display pixels
	Region           region.Config `json:"region"`
}

// DefaultConfig returns a 600x400 surface with a 12px resize handle
func DefaultConfig() Config {
	return Config{
		MaxDisplayWidth:  600,
		MaxDisplayHeight: 400,
		HandleSize:       12,
		Region:           region.DefaultConfig(),
	}
}

// Steps for the scale buttons and the quick-size presets.
const (
	ScaleDown    = 0.8
	ScaleUp      = 1.2
	PresetSmall  = 0.2
	PresetMedium = 0.4
	PresetLarge  = 0.6
)

type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragResize
)

// Editor holds the placeholder being edited. It is driven from a single
// event loop and is not safe for concurrent use.
type Editor struct {
	config    Config
	source    geometry.Size
	mapper    geometry.Mapper
	region    region.Region
	mode      dragMode
	grab      geometry.Point
	listeners []func(region.Region)
	logger    *slog.Logger
}

// Option configures an Editor
type Option func(*Editor)

// WithConfig replaces the default configuration
func WithConfig(c Config) Option {
	return func(e *Editor) { e.config = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New creates an editor for a banner of the given size. A previously saved
// region may be passed as initial; it is clamped to the banner.
func New(source geometry.Size, initial *region.Region, opts ...Option) (*Editor, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("invalid banner size %vx%v", source.W, source.H)
	}
	e := &Editor{config: DefaultConfig(), source: source, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	display := geometry.FitWithin(source, e.config.MaxDisplayWidth, e.config.MaxDisplayHeight)
	if !display.Valid() {
		return nil, fmt.Errorf("invalid display bounds %vx%v", e.config.MaxDisplayWidth, e.config.MaxDisplayHeight)
	}
	e.mapper = geometry.NewMapper(source, display)
	e.region = region.Create(source, initial, e.config.Region)
	return e, nil
}

// Region returns the current placeholder in source pixels.
func (e *Editor) Region() region.Region { return e.region }

// Mapper returns the source/display mapping of the surface.
func (e *Editor) Mapper() geometry.Mapper { return e.mapper }

// DisplaySize returns the size of the preview surface.
func (e *Editor) DisplaySize() geometry.Size { return e.mapper.Display }

// DisplayBox returns the placeholder in display coordinates.
func (e *Editor) DisplayBox() geometry.Rect {
	return e.mapper.RectToDisplay(e.region.Rect())
}

// Dragging reports whether a move or resize is in progress.
func (e *Editor) Dragging() bool { return e.mode != dragNone }

// OnChange registers fn to receive the region after every change.
func (e *Editor) OnChange(fn func(region.Region)) {
	e.listeners = append(e.listeners, fn)
}

// PointerDown starts a resize when p is on the bottom-right handle, or a
// move when p is inside the box. It reports whether a drag started.
func (e *Editor) PointerDown(p geometry.Point) bool {
	box := e.DisplayBox()
	corner := box.Max()
	hs := e.config.HandleSize
	switch {
	case hs > 0 && math.Abs(p.X-corner.X) <= hs && math.Abs(p.Y-corner.Y) <= hs:
		e.mode = dragResize
		e.grab = p.Sub(corner)
	case box.Contains(p):
		e.mode = dragMove
		e.grab = p.Sub(box.Min())
	default:
		return false
	}
	e.logger.Debug("placeholder drag started", "mode", e.mode, "x", p.X, "y", p.Y)
	return true
}

// PointerMove updates the region for an active drag. The origin or corner is
// snapped to whole source pixels. A resize keeps the top-left corner fixed
// and stops growing at the banner edge.
func (e *Editor) PointerMove(p geometry.Point) {
	switch e.mode {
	case dragMove:
		origin := e.mapper.ToSource(p.Sub(e.grab))
		e.SetPosition(origin.X, origin.Y)
	case dragResize:
		corner := e.mapper.ToSource(p.Sub(e.grab))
		w := math.Min(math.Round(corner.X), e.source.W) - e.region.X
		h := math.Min(math.Round(corner.Y), e.source.H) - e.region.Y
		e.SetSize(w, h)
	}
}

// PointerUp commits the drag.
func (e *Editor) PointerUp() {
	e.mode = dragNone
	e.grab = geometry.Point{}
}

// PointerLeave commits the drag when the pointer leaves the surface.
func (e *Editor) PointerLeave() { e.PointerUp() }

// SetPosition moves the box to a typed origin, rounded to whole pixels.
func (e *Editor) SetPosition(x, y float64) {
	e.set(region.Move(e.region, math.Round(x), math.Round(y), e.source))
}

// SetSize resizes the box to typed dimensions, rounded to whole pixels.
func (e *Editor) SetSize(w, h float64) {
	e.set(region.Resize(e.region, math.Round(w), math.Round(h), e.source, e.config.Region))
}

// SetX moves the box to a typed x.
func (e *Editor) SetX(x float64) { e.SetPosition(x, e.region.Y) }

// SetY moves the box to a typed y.
func (e *Editor) SetY(y float64) { e.SetPosition(e.region.X, y) }

// SetWidth resizes the box to a typed width.
func (e *Editor) SetWidth(w float64) { e.SetSize(w, e.region.Height) }

// SetHeight resizes the box to a typed height.
func (e *Editor) SetHeight(h float64) { e.SetSize(e.region.Width, h) }

// ScaleBy multiplies both sides by f. The result is rounded and kept between
// the minimum size and the banner.
func (e *Editor) ScaleBy(f float64) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	e.SetSize(e.region.Width*f, e.region.Height*f)
}

// Preset makes the box a square of fraction times the smaller banner side,
// keeping its origin where it fits.
func (e *Editor) Preset(fraction float64) {
	if fraction <= 0 || math.IsNaN(fraction) {
		return
	}
	side := math.Min(e.source.W, e.source.H) * fraction
	e.SetSize(side, side)
}

// SetShape switches between rectangle and circle.
func (e *Editor) SetShape(s region.Shape) { e.set(region.SetShape(e.region, s)) }

// SetRegion replaces the region, clamped to the banner.
func (e *Editor) SetRegion(r region.Region) {
	e.set(region.Clamp(r, e.source, e.config.Region))
}

// Reset re-centers a default-sized box, keeping the shape.
func (e *Editor) Reset() {
	r := region.Create(e.source, nil, e.config.Region)
	e.set(region.SetShape(r, e.region.Shape))
}

func (e *Editor) set(next region.Region) {
	if next == e.region {
		return
	}
	e.region = next
	for _, fn := range e.listeners {
		fn(next)
	}
}

func (m dragMode) String() string {
	switch m {
	case dragMove:
		return "move"
	case dragResize:
		return "resize"
	default:
		return "none"
	}
}
