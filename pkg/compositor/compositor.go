// Package compositor rasterizes a user photo into a banner's placeholder at
// full banner resolution.
//
// Render draws in a fixed order:
//
//  1. allocate the output at banner size
//  2. draw the banner unscaled at (0,0)
//  3. move the origin to the placeholder center
//  4. rotate, then scale, then translate the photo (translation is screen aligned)
//  5. clip to the placeholder shape, which stays fixed while the photo moves
//  6. stretch the photo over exactly width×height before the transform
//  7. flatten into the output
//
// Rendering is deterministic and performs no I/O.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/region"
	"github.com/menta2k/photo-frame/pkg/transform"
	"github.com/menta2k/photo-frame/pkg/types"
)

// Config holds configuration for the compositor
type Config struct {
	// Interpolation is one of catmullrom, bilinear, approxbilinear or nearest.
	Interpolation string
	// Region holds the placeholder sizing rules used to repair bad regions.
	Region region.Config
}

// DefaultConfig returns the compositor defaults
func DefaultConfig() Config {
	return Config{
		Interpolation: "catmullrom",
		Region:        region.DefaultConfig(),
	}
}

// Compositor renders composites. It holds no per-render state and may be
// shared between sessions.
type Compositor struct {
	config Config
	interp xdraw.Interpolator
	logger *slog.Logger
}

// Option configures a Compositor
type Option func(*Compositor)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) { c.logger = l }
}

// New creates a Compositor with default configuration
func New(opts ...Option) *Compositor {
	c, _ := NewWithConfig(DefaultConfig(), opts...)
	return c
}

// NewWithConfig creates a Compositor with custom configuration
func NewWithConfig(config Config, opts ...Option) (*Compositor, error) {
	interp, err := ParseInterpolation(config.Interpolation)
	if err != nil {
		return nil, err
	}
	c := &Compositor{config: config, interp: interp, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseInterpolation maps a name to an x/image interpolator.
func ParseInterpolation(name string) (xdraw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "", "catmullrom":
		return xdraw.CatmullRom, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "approxbilinear":
		return xdraw.ApproxBiLinear, nil
	case "nearest":
		return xdraw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}
}

// Render composites overlay into the placeholder r of source under t.
// The result is exactly the size of source.
func (c *Compositor) Render(source image.Image, r region.Region, overlay image.Image, t transform.Transform) (*image.NRGBA, error) {
	if source == nil || source.Bounds().Empty() {
		return nil, &types.RenderError{Stage: "source", Err: errors.New("banner image is empty")}
	}
	if overlay == nil || overlay.Bounds().Empty() {
		return nil, &types.RenderError{Stage: "overlay", Err: errors.New("photo image is empty")}
	}
	if t.Scale <= 0 || math.IsNaN(t.Scale) || math.IsInf(t.Scale, 0) {
		return nil, &types.RenderError{Stage: "transform", Err: fmt.Errorf("invalid scale %v", t.Scale)}
	}

	sb := source.Bounds()
	size := geometry.Size{W: float64(sb.Dx()), H: float64(sb.Dy())}
	if err := region.Validate(r, size, c.config.Region); err != nil {
		fixed := region.Clamp(r, size, c.config.Region)
		c.logger.Warn("placeholder outside banner, clamped", "error", err, "region", r, "clamped", fixed)
		r = fixed
	}

	// Steps 1 and 2: the clone is the banner at the origin.
	out := imaging.Clone(source)

	bounds := r.Bounds().Intersect(out.Bounds())
	if bounds.Empty() {
		return out, nil
	}

	// Steps 3, 4 and 6 collapse into one photo→banner affine map.
	photo := imaging.Clone(overlay)
	layer := image.NewNRGBA(bounds)
	c.interp.Transform(layer, photoToBanner(r, t, photo.Bounds().Size()), photo, photo.Bounds(), xdraw.Src, nil)

	// Step 5: the clip lives in placeholder space, untouched by t.
	mask := clipMask(r, bounds)

	// Step 7.
	draw.DrawMask(out, bounds, layer, bounds.Min, mask, bounds.Min, draw.Over)
	return out, nil
}

// photoToBanner returns the affine map from photo pixels to banner pixels:
//
//	banner = center + translate + scale·R(θ)·q
//	q      = (u·w/pw − w/2, v·h/ph − h/2)
func photoToBanner(r region.Region, t transform.Transform, photo image.Point) f64.Aff3 {
	kx := r.Width / float64(photo.X)
	ky := r.Height / float64(photo.Y)
	c := r.Center()
	hw, hh := r.Width/2, r.Height/2

	// Photo pixel (0,0) and the two unit steps, stretched and placed.
	o := t.Apply(geometry.Point{X: -hw, Y: -hh})
	ex := t.Apply(geometry.Point{X: kx - hw, Y: -hh}).Sub(o)
	ey := t.Apply(geometry.Point{X: -hw, Y: ky - hh}).Sub(o)

	return f64.Aff3{
		ex.X, ey.X, c.X + o.X,
		ex.Y, ey.Y, c.Y + o.Y,
	}
}
