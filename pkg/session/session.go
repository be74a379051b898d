// Package session ties one banner and placeholder to the photo a visitor is
// placing into it, and exports the finished composite.
//
// Interaction methods (pointer events, sliders, Reset) are expected to come
// from a single event loop. Export may run on another goroutine: it renders
// from a snapshot of the transform taken when it starts, and a second export
// is rejected while one is in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/menta2k/photo-frame/internal/utils"
	"github.com/menta2k/photo-frame/pkg/compositor"
	"github.com/menta2k/photo-frame/pkg/export"
	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/loader"
	"github.com/menta2k/photo-frame/pkg/region"
	"github.com/menta2k/photo-frame/pkg/transform"
	"github.com/menta2k/photo-frame/pkg/vision"
)

var (
	// ErrExportInProgress is returned by Export while another export runs.
	ErrExportInProgress = errors.New("export already in progress")
	// ErrNoPhoto is returned when an operation needs a photo and none is loaded.
	ErrNoPhoto = errors.New("no photo loaded")
)

// Session is one visitor's compositing state.
type Session struct {
	compositor *compositor.Compositor
	loader     *loader.Loader
	logger     *slog.Logger
	regionCfg  region.Config

	banner image.Image
	source geometry.Size
	region region.Region
	mapper geometry.Mapper

	mu      sync.Mutex // guards photo and machine
	photo   image.Image
	machine transform.Machine

	exporting sync.Mutex
}

// Option configures a Session
type Option func(*Session)

// WithCompositor sets the compositor used for rendering
func WithCompositor(c *compositor.Compositor) Option {
	return func(s *Session) { s.compositor = c }
}

// WithLoader sets the loader used by LoadPhoto
func WithLoader(l *loader.Loader) Option {
	return func(s *Session) { s.loader = l }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRegionConfig sets the sizing rules used to repair the region
func WithRegionConfig(c region.Config) Option {
	return func(s *Session) { s.regionCfg = c }
}

// New creates a session for banner with the placeholder r, shown on a
// display surface of the given size. r is clamped to the banner.
func New(banner image.Image, r region.Region, display geometry.Size, opts ...Option) (*Session, error) {
	if banner == nil || banner.Bounds().Empty() {
		return nil, fmt.Errorf("banner image is empty")
	}
	if !display.Valid() {
		return nil, fmt.Errorf("invalid display size %vx%v", display.W, display.H)
	}
	s := &Session{
		logger:    slog.Default(),
		regionCfg: region.DefaultConfig(),
		banner:    banner,
		machine:   transform.NewMachine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.compositor == nil {
		s.compositor = compositor.New(compositor.WithLogger(s.logger))
	}
	if s.loader == nil {
		s.loader = loader.New()
	}

	b := banner.Bounds()
	s.source = geometry.Size{W: float64(b.Dx()), H: float64(b.Dy())}
	s.region = region.Clamp(r, s.source, s.regionCfg)
	if s.region != r {
		s.logger.Warn("placeholder clamped to banner", "region", r, "clamped", s.region)
	}
	s.mapper = geometry.NewMapper(s.source, display)
	return s, nil
}

// Region returns the placeholder in banner pixels.
func (s *Session) Region() region.Region { return s.region }

// Mapper returns the banner/display mapping.
func (s *Session) Mapper() geometry.Mapper { return s.mapper }

// Placeholder returns the placeholder box on the display surface.
func (s *Session) Placeholder() geometry.Rect {
	return s.mapper.RectToDisplay(s.region.Rect())
}

// LoadPhoto decodes data and makes it the session photo.
func (s *Session) LoadPhoto(data []byte) error {
	img, err := s.loader.Decode("photo", data)
	if err != nil {
		return err
	}
	s.SetPhoto(img)
	return nil
}

// SetPhoto replaces the photo. The placement the visitor already chose is
// kept; any drag in progress ends.
func (s *Session) SetPhoto(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = img
	s.machine = s.machine.PointerUp()
	if img != nil {
		s.logger.Info("photo loaded", "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}
}

// HasPhoto reports whether a photo is loaded.
func (s *Session) HasPhoto() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo != nil
}

// local converts a display point to placeholder-centered banner pixels.
func (s *Session) local(p geometry.Point) geometry.Point {
	return s.mapper.ToSource(p).Sub(s.region.Center())
}

// hit reports whether the display point p falls on the placeholder.
func (s *Session) hit(p geometry.Point) bool {
	q := s.mapper.ToSource(p)
	if s.region.Shape == region.Circle {
		return q.Distance(s.region.Center()) <= s.region.Radius()
	}
	return s.region.Rect().Contains(q)
}

// PointerDown starts dragging the photo when p (display pixels) is on the
// placeholder and a photo is loaded. It reports whether a drag started.
func (s *Session) PointerDown(p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.photo == nil || !s.hit(p) {
		return false
	}
	s.machine = s.machine.PointerDown(s.local(p))
	return true
}

// PointerMove drags the photo. The pointer may leave the placeholder while
// dragging.
func (s *Session) PointerMove(p geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.PointerMove(s.local(p))
}

// PointerUp ends a drag.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.PointerUp()
}

// PointerLeave ends a drag when the pointer leaves the surface.
func (s *Session) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.PointerLeave()
}

// Dragging reports whether the photo is being dragged.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State() == transform.Dragging
}

// SetScale sets the photo scale, clamped to the slider range.
func (s *Session) SetScale(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.SetScale(v)
}

// SetRotation sets the photo rotation in degrees, clamped to ±180.
func (s *Session) SetRotation(deg float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.SetRotation(deg)
}

// SetTransform replaces the whole transform, clamped like the sliders.
func (s *Session) SetTransform(t transform.Transform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.SetTransform(t)
}

// Reset restores the default transform.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.Reset()
}

// Transform returns the current transform.
func (s *Session) Transform() transform.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Transform()
}

func (s *Session) snapshot() (image.Image, transform.Transform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo, s.machine.Transform()
}

// Render composites the photo at full banner resolution using the
// transform as it is when Render is called.
func (s *Session) Render() (*image.NRGBA, error) {
	photo, t := s.snapshot()
	if photo == nil {
		return nil, ErrNoPhoto
	}
	return s.compositor.Render(s.banner, s.region, photo, t)
}

// Preview renders the composite and scales it to the display surface.
// Without a photo the bare banner is shown.
func (s *Session) Preview() (*image.NRGBA, error) {
	w := int(math.Max(1, math.Round(s.mapper.Display.W)))
	h := int(math.Max(1, math.Round(s.mapper.Display.H)))

	out, err := s.Render()
	if errors.Is(err, ErrNoPhoto) {
		return imaging.Resize(s.banner, w, h, imaging.Lanczos), nil
	}
	if err != nil {
		return nil, err
	}
	return imaging.Resize(out, w, h, imaging.Lanczos), nil
}

// Export renders, encodes and hands the result to sink, returning the URL
// the sink reports. The sink is only called once encoding has succeeded.
// An empty name defaults to a poster file name for the chosen format.
func (s *Session) Export(ctx context.Context, opts compositor.EncodeOptions, sink export.Sink, name string) (string, error) {
	if !s.exporting.TryLock() {
		return "", ErrExportInProgress
	}
	defer s.exporting.Unlock()

	if opts.Format == "" {
		opts.Format = compositor.PNG
	}
	if name == "" {
		name = utils.PosterFilename("", opts.Format.Extension())
	}

	out, err := s.Render()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := compositor.EncodeBytes(out, opts)
	if err != nil {
		return "", err
	}

	url, err := sink.Put(ctx, name, opts.Format.ContentType(), data)
	if err != nil {
		return "", fmt.Errorf("failed to store composite: %w", err)
	}
	s.logger.Info("composite exported", "name", name, "format", opts.Format, "bytes", len(data), "url", url)
	return url, nil
}

// AutoFit asks loc where the photo's subject is and places the photo so the
// subject sits in the middle of the placeholder. A drag in progress ends.
func (s *Session) AutoFit(ctx context.Context, loc vision.Locator) (transform.Transform, error) {
	photo, _ := s.snapshot()
	if photo == nil {
		return transform.Transform{}, ErrNoPhoto
	}
	box, err := loc.Locate(ctx, photo)
	if err != nil {
		return transform.Transform{}, fmt.Errorf("failed to locate subject: %w", err)
	}
	t := transform.FitSubject(box, s.region.Width, s.region.Height)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine = s.machine.PointerUp().SetTransform(t)
	s.logger.Debug("photo auto-fitted", "box", box, "transform", t)
	return s.machine.Transform(), nil
}
