package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	photoframe "github.com/menta2k/photo-frame"
	"github.com/menta2k/photo-frame/internal/config"
	"github.com/menta2k/photo-frame/internal/utils"
)

var (
	cfgPath   string
	logLevel  string
	logFormat string

	appCfg *config.Config
	logger *slog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:           "photoframe",
		Short:         "Place a photo into a campaign banner and render the poster",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := cfgPath
			if path == "" {
				path = config.GetConfigPath()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			l, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}
			appCfg, logger = cfg, l
			slog.SetDefault(l)
			logger.Debug("configuration loaded", "path", path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/photo-frame/config.json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(regionCmd(), composeCmd(), checkVisionCmd(), versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return root.ExecuteContext(ctx)
}

func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch lc.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", lc.Format)
	}
}

// newEngine builds an engine from the loaded configuration; mutate may
// adjust the settings first.
func newEngine(mutate func(*photoframe.Config)) (*photoframe.Engine, error) {
	enc, err := appCfg.EncodeOptions()
	if err != nil {
		return nil, err
	}
	fc := photoframe.Config{
		Editor:     appCfg.EditorSettings(),
		Compositor: appCfg.CompositorSettings(),
		Encode:     enc,
		Saliency:   appCfg.SaliencySettings(),
	}
	if mutate != nil {
		mutate(&fc)
	}
	return photoframe.NewWithConfig(fc, logger)
}

// checkImageSource rejects local paths that are missing or do not carry an
// image extension. URLs are left to the loader.
func checkImageSource(flag, src string) error {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return nil
	}
	if !utils.FileExists(src) {
		return fmt.Errorf("--%s: file not found: %s", flag, src)
	}
	if !utils.IsImageFile(src) {
		return fmt.Errorf("--%s: unsupported file type %q", flag, utils.GetFileExtension(src))
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
