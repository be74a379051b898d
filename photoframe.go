// Package photoframe composites a visitor's photo into the placeholder of a
// campaign banner and renders the result at full banner resolution.
//
// Basic usage:
//
//	engine := photoframe.New()
//
//	banner, err := engine.LoadImage(ctx, "banner.png")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// The campaign owner places the placeholder on a 600x400 preview.
//	ed, err := engine.NewEditor(banner, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	ed.SetShape(region.Circle)
//
//	// A visitor drops a photo in, drags it and exports.
//	s, err := engine.NewSession(banner, ed.Region())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := s.LoadPhoto(photoBytes); err != nil {
//		log.Fatal(err)
//	}
//	s.SetScale(1.2)
//	url, err := engine.Export(ctx, s, export.NewFileSink("out"), "Summer Fest")
//
// The package consists of these components:
//
//  1. Geometry (pkg/geometry): source/display coordinate mapping
//  2. Region (pkg/region): the placeholder box and its clamping rules
//  3. Editor (pkg/editor): placing the placeholder on a scaled preview
//  4. Transform (pkg/transform): the photo's drag/scale/rotate state
//  5. Compositor (pkg/compositor): full resolution rendering and encoding
//  6. Session (pkg/session): one visitor's photo, transform and export
//  7. Vision (pkg/vision, pkg/detection, pkg/ollama): subject auto-fit
package photoframe

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/url"

	"github.com/menta2k/photo-frame/internal/utils"
	"github.com/menta2k/photo-frame/pkg/compositor"
	"github.com/menta2k/photo-frame/pkg/editor"
	"github.com/menta2k/photo-frame/pkg/export"
	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/loader"
	"github.com/menta2k/photo-frame/pkg/region"
	"github.com/menta2k/photo-frame/pkg/session"
	"github.com/menta2k/photo-frame/pkg/transform"
	"github.com/menta2k/photo-frame/pkg/vision"
)

// Version of the photo-frame library
const Version = "1.0.0"

// Config holds the settings shared by every editor and session an Engine creates
type Config struct {
	Editor     editor.Config
	Compositor compositor.Config
	Encode     compositor.EncodeOptions
	Saliency   vision.SaliencyConfig
}

// DefaultConfig returns the stock settings
func DefaultConfig() Config {
	return Config{
		Editor:     editor.DefaultConfig(),
		Compositor: compositor.DefaultConfig(),
		Encode:     compositor.DefaultEncodeOptions(),
		Saliency:   vision.DefaultSaliencyConfig(),
	}
}

// Engine provides a high-level interface for placing and compositing photos
type Engine struct {
	config     Config
	compositor *compositor.Compositor
	loader     *loader.Loader
	logger     *slog.Logger
}

// New creates a new Engine with default configuration
func New() *Engine {
	e, _ := NewWithConfig(DefaultConfig(), slog.Default())
	return e
}

// NewWithConfig creates a new Engine with custom configuration
func NewWithConfig(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := compositor.NewWithConfig(cfg.Compositor, compositor.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("invalid compositor config: %w", err)
	}
	return &Engine{
		config:     cfg,
		compositor: c,
		loader:     loader.New(),
		logger:     logger,
	}, nil
}

// Config returns the engine settings
func (e *Engine) Config() Config { return e.config }

// LoadImage loads an image from a file path or an http(s) URL
func (e *Engine) LoadImage(ctx context.Context, src string) (image.Image, error) {
	img, err := e.loader.LoadImageSmart(ctx, src)
	if err != nil {
		return nil, err
	}
	name := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		name = u.Path
	}
	info := loader.Info(img, utils.GetFileExtension(name))
	e.logger.Info("image loaded", "source", src, "width", info.Width, "height", info.Height,
		"format", info.Format, "aspect_ratio", info.AspectRatio)
	return img, nil
}

// NewEditor opens the placeholder editor for banner. initial may be nil.
func (e *Engine) NewEditor(banner image.Image, initial *region.Region) (*editor.Editor, error) {
	if banner == nil || banner.Bounds().Empty() {
		return nil, fmt.Errorf("banner image is empty")
	}
	return editor.New(sizeOf(banner), initial, editor.WithConfig(e.config.Editor), editor.WithLogger(e.logger))
}

// NewSession starts a compositing session for banner and placeholder r,
// shown on the same bounded surface the editor uses.
func (e *Engine) NewSession(banner image.Image, r region.Region) (*session.Session, error) {
	if banner == nil || banner.Bounds().Empty() {
		return nil, fmt.Errorf("banner image is empty")
	}
	display := geometry.FitWithin(sizeOf(banner), e.config.Editor.MaxDisplayWidth, e.config.Editor.MaxDisplayHeight)
	return session.New(banner, r, display,
		session.WithCompositor(e.compositor),
		session.WithLoader(e.loader),
		session.WithLogger(e.logger),
		session.WithRegionConfig(e.config.Editor.Region),
	)
}

// Compose renders photo into r on banner under t
func (e *Engine) Compose(banner image.Image, r region.Region, photo image.Image, t transform.Transform) (*image.NRGBA, error) {
	return e.compositor.Render(banner, r, photo, t)
}

// ComposeBytes decodes, renders and encodes in one step using the engine's
// output encoding
func (e *Engine) ComposeBytes(banner []byte, r region.Region, photo []byte, t transform.Transform) ([]byte, error) {
	return e.compositor.RenderBytes(banner, r, photo, t, e.config.Encode)
}

// Export renders the session and stores it in sink under the poster file
// name derived from title
func (e *Engine) Export(ctx context.Context, s *session.Session, sink export.Sink, title string) (string, error) {
	name := utils.PosterFilename(title, e.config.Encode.Format.Extension())
	return s.Export(ctx, e.config.Encode, sink, name)
}

// SaliencyLocator returns the offline subject locator
func (e *Engine) SaliencyLocator() *vision.SaliencyLocator {
	return vision.NewSaliencyLocatorWithConfig(e.config.Saliency)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func sizeOf(img image.Image) geometry.Size {
	b := img.Bounds()
	return geometry.Size{W: float64(b.Dx()), H: float64(b.Dy())}
}
