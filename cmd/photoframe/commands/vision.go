package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/photo-frame/pkg/detection"
)

func checkVisionCmd() *cobra.Command {
	var imagePath, backend string
	cmd := &cobra.Command{
		Use:   "check-vision",
		Short: "Ask the configured vision model to describe an image",
		Long: "Sends one image to the vision model used by auto-fit and prints its answer.\n" +
			"Use it to confirm the model accepts images before relying on auto-fit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if backend == "" {
				backend = appCfg.Vision.Backend
			}
			if backend == "saliency" {
				return fmt.Errorf("the saliency backend has no model to check; pass --backend ollama or llamacpp")
			}
			d, err := newDetector(backend)
			if err != nil {
				return err
			}
			if err := checkImageSource("image", imagePath); err != nil {
				return err
			}
			engine, err := newEngine(nil)
			if err != nil {
				return err
			}
			img, err := engine.LoadImage(ctx, imagePath)
			if err != nil {
				return err
			}
			b64, err := detection.PrepareImage(img)
			if err != nil {
				return err
			}
			if appCfg.Vision.TimeoutSeconds > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appCfg.Vision.Timeout())
				defer cancel()
			}

			logger.Info("querying vision model", "backend", backend, "model", appCfg.Vision.Model)
			answer, err := d.TestVision(ctx, b64)
			if err != nil {
				return fmt.Errorf("vision model check failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "image path or URL to describe")
	cmd.Flags().StringVar(&backend, "backend", "", "ollama or llamacpp (default vision.backend)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
