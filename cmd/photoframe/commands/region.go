package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/photo-frame/pkg/compositor"
	"github.com/menta2k/photo-frame/pkg/editor"
	"github.com/menta2k/photo-frame/pkg/region"
)

func regionCmd() *cobra.Command {
	var (
		banner, from, out, preview string
		x, y, width, height        float64
		shape, preset              string
		scaleBy                    float64
	)
	cmd := &cobra.Command{
		Use:   "region",
		Short: "Create or edit the photo placeholder of a banner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkImageSource("banner", banner); err != nil {
				return err
			}
			engine, err := newEngine(nil)
			if err != nil {
				return err
			}
			img, err := engine.LoadImage(cmd.Context(), banner)
			if err != nil {
				return err
			}

			var initial *region.Region
			if from != "" {
				r, err := readRegion(from)
				if err != nil {
					return err
				}
				initial = &r
			}
			ed, err := engine.NewEditor(img, initial)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if preset != "" {
				f, err := presetFraction(preset)
				if err != nil {
					return err
				}
				ed.Preset(f)
			}
			if flags.Changed("scale-by") {
				ed.ScaleBy(scaleBy)
			}
			if flags.Changed("width") {
				ed.SetWidth(width)
			}
			if flags.Changed("height") {
				ed.SetHeight(height)
			}
			if flags.Changed("x") {
				ed.SetX(x)
			}
			if flags.Changed("y") {
				ed.SetY(y)
			}
			if flags.Changed("shape") {
				s, err := region.ParseShape(shape)
				if err != nil {
					return err
				}
				ed.SetShape(s)
			}

			data, err := json.MarshalIndent(ed.Region(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal region: %w", err)
			}
			if err := writeFile(out, append(data, '\n')); err != nil {
				return err
			}

			if preview != "" {
				png, err := compositor.EncodeBytes(ed.Preview(img), compositor.DefaultEncodeOptions())
				if err != nil {
					return err
				}
				if err := writeFile(preview, png); err != nil {
					return err
				}
				logger.Info("wrote preview", "path", preview)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&banner, "banner", "", "banner image path or URL")
	cmd.Flags().StringVar(&from, "from", "", "existing region JSON to start from")
	cmd.Flags().Float64Var(&x, "x", 0, "placeholder left edge (banner pixels)")
	cmd.Flags().Float64Var(&y, "y", 0, "placeholder top edge (banner pixels)")
	cmd.Flags().Float64Var(&width, "width", 0, "placeholder width (banner pixels)")
	cmd.Flags().Float64Var(&height, "height", 0, "placeholder height (banner pixels)")
	cmd.Flags().StringVar(&shape, "shape", "rectangle", "placeholder shape: rectangle or circle")
	cmd.Flags().StringVar(&preset, "preset", "", "quick size: small, medium or large (20/40/60% of the shorter side)")
	cmd.Flags().Float64Var(&scaleBy, "scale-by", 1, "scale the placeholder, e.g. 0.8 or 1.2")
	cmd.Flags().StringVar(&out, "out", "-", "region JSON output path, - for stdout")
	cmd.Flags().StringVar(&preview, "preview", "", "write a display-size PNG preview with the placeholder outlined")
	_ = cmd.MarkFlagRequired("banner")
	return cmd
}

func presetFraction(name string) (float64, error) {
	switch name {
	case "small":
		return editor.PresetSmall, nil
	case "medium":
		return editor.PresetMedium, nil
	case "large":
		return editor.PresetLarge, nil
	default:
		return 0, fmt.Errorf("unknown preset %q (use small, medium or large)", name)
	}
}

func readRegion(path string) (region.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return region.Region{}, fmt.Errorf("failed to read region: %w", err)
	}
	var r region.Region
	if err := json.Unmarshal(data, &r); err != nil {
		return region.Region{}, fmt.Errorf("failed to parse region: %w", err)
	}
	return r, nil
}
