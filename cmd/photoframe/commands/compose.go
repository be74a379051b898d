package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	photoframe "github.com/menta2k/photo-frame"
	"github.com/menta2k/photo-frame/pkg/compositor"
	"github.com/menta2k/photo-frame/pkg/detection"
	"github.com/menta2k/photo-frame/pkg/export"
	"github.com/menta2k/photo-frame/pkg/llamacpp"
	"github.com/menta2k/photo-frame/pkg/ollama"
	"github.com/menta2k/photo-frame/pkg/session"
	"github.com/menta2k/photo-frame/pkg/vision"
)

func composeCmd() *cobra.Command {
	var (
		banner, regionPath, photo string
		scale, rotate, tx, ty     float64
		autofit, format, outDir   string
		title                     string
		quality                   int
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Composite a photo into the banner placeholder and export the poster",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			var outFormat compositor.Format
			if flags.Changed("format") {
				f, err := compositor.ParseFormat(format)
				if err != nil {
					return err
				}
				outFormat = f
			}
			engine, err := newEngine(func(fc *photoframe.Config) {
				if outFormat != "" {
					fc.Encode.Format = outFormat
				}
				if flags.Changed("quality") {
					fc.Encode.Quality = quality
				}
			})
			if err != nil {
				return err
			}

			if err := checkImageSource("banner", banner); err != nil {
				return err
			}
			if err := checkImageSource("photo", photo); err != nil {
				return err
			}
			r, err := readRegion(regionPath)
			if err != nil {
				return err
			}
			bannerImg, err := engine.LoadImage(ctx, banner)
			if err != nil {
				return err
			}
			photoImg, err := engine.LoadImage(ctx, photo)
			if err != nil {
				return err
			}

			s, err := engine.NewSession(bannerImg, r)
			if err != nil {
				return err
			}
			s.SetPhoto(photoImg)

			if autofit != "" {
				loc, err := locator(engine, autofit)
				if err != nil {
					return err
				}
				if err := runAutoFit(ctx, s, loc); err != nil {
					return err
				}
			}

			t := s.Transform()
			if flags.Changed("scale") {
				t.Scale = scale
			}
			if flags.Changed("rotate") {
				t.RotationDegrees = rotate
			}
			if flags.Changed("tx") {
				t.TranslateX = tx
			}
			if flags.Changed("ty") {
				t.TranslateY = ty
			}
			s.SetTransform(t)

			dir := outDir
			if dir == "" {
				dir = appCfg.Output.OutputDir
			}
			url, err := engine.Export(ctx, s, export.NewFileSink(dir), title)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVar(&banner, "banner", "", "banner image path or URL")
	cmd.Flags().StringVar(&regionPath, "region", "", "region JSON written by the region command")
	cmd.Flags().StringVar(&photo, "photo", "", "photo path or URL")
	cmd.Flags().Float64Var(&scale, "scale", 1, "photo scale (0.5-2)")
	cmd.Flags().Float64Var(&rotate, "rotate", 0, "photo rotation in degrees (-180 to 180)")
	cmd.Flags().Float64Var(&tx, "tx", 0, "horizontal offset from the placeholder center (banner pixels)")
	cmd.Flags().Float64Var(&ty, "ty", 0, "vertical offset from the placeholder center (banner pixels)")
	cmd.Flags().StringVar(&autofit, "autofit", "", "center the photo's subject first: saliency, ollama or llamacpp (bare flag uses vision.backend)")
	cmd.Flags().Lookup("autofit").NoOptDefVal = "config"
	cmd.Flags().StringVar(&format, "format", "", "output format: png, jpg, webp, gif, bmp, tiff")
	cmd.Flags().IntVar(&quality, "quality", 90, "JPEG/WebP quality (1-100)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "campaign title used for the file name")
	_ = cmd.MarkFlagRequired("banner")
	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

// locator picks the auto-fit backend; "config" means vision.backend.
func locator(engine *photoframe.Engine, backend string) (vision.Locator, error) {
	if backend == "config" {
		backend = appCfg.Vision.Backend
	}
	if backend == "saliency" {
		return engine.SaliencyLocator(), nil
	}
	return newDetector(backend)
}

// newDetector builds a model-backed locator for the ollama or llamacpp backend.
func newDetector(backend string) (*detection.Detector, error) {
	vc := appCfg.Vision
	hc := &http.Client{Timeout: vc.Timeout()}

	var (
		client vision.Client
		err    error
	)
	switch backend {
	case "ollama":
		client, err = ollama.NewClientWithHTTP(vc.OllamaURL, hc)
	case "llamacpp":
		client, err = llamacpp.NewClientWithHTTP(vc.LlamaCppURL, hc)
	default:
		return nil, fmt.Errorf("unknown vision backend %q (use saliency, ollama or llamacpp)", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", backend, err)
	}
	logger.Debug("vision backend ready", "backend", backend, "model", vc.Model)
	return detection.NewDetector(client, vc.Model), nil
}

// runAutoFit keeps the default placement when no subject is found.
func runAutoFit(ctx context.Context, s *session.Session, loc vision.Locator) error {
	if appCfg.Vision.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, appCfg.Vision.Timeout())
		defer cancel()
	}
	t, err := s.AutoFit(ctx, loc)
	switch {
	case err == nil:
		logger.Info("photo auto-fitted", "scale", t.Scale, "tx", t.TranslateX, "ty", t.TranslateY)
	case errors.Is(err, vision.ErrNoSubject):
		logger.Warn("no subject found, keeping default placement")
	default:
		return err
	}
	return nil
}
