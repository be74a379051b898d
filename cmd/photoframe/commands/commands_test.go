package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-frame/internal/config"
	"github.com/menta2k/photo-frame/pkg/detection"
	"github.com/menta2k/photo-frame/pkg/editor"
	"github.com/menta2k/photo-frame/pkg/region"
)

// useConfig installs cfg and a silent logger for the duration of the test.
func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	appCfg, logger = cfg, slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(func() { appCfg, logger = nil, nil })
}

func TestReadRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x":10,"y":20,"width":300,"height":200,"shape":"circle"}`), 0o644))

	r, err := readRegion(path)
	require.NoError(t, err)
	assert.Equal(t, region.Region{X: 10, Y: 20, Width: 300, Height: 200, Shape: region.Circle}, r)

	require.NoError(t, os.WriteFile(path, []byte(`{"shape":"hexagon"}`), 0o644))
	_, err = readRegion(path)
	assert.Error(t, err)

	_, err = readRegion(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
	_, err = newLogger(&buf, config.LogConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
}

func TestNewEngineAppliesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Output.DefaultFormat = "webp"
	useConfig(t, cfg)

	e, err := newEngine(nil)
	require.NoError(t, err)
	assert.Equal(t, "webp", string(e.Config().Encode.Format))
	assert.Equal(t, 600.0, e.Config().Editor.MaxDisplayWidth)
}

func TestCheckImageSource(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "banner.png")
	require.NoError(t, imaging.Save(imaging.New(4, 4, color.White), png))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0o644))

	assert.NoError(t, checkImageSource("banner", png))
	assert.NoError(t, checkImageSource("banner", "https://example.com/banner"))

	err := checkImageSource("photo", filepath.Join(dir, "missing.jpg"))
	assert.ErrorContains(t, err, "--photo: file not found")
	err = checkImageSource("banner", txt)
	assert.ErrorContains(t, err, `unsupported file type "txt"`)
	assert.Error(t, checkImageSource("banner", dir), "a directory is not an image")
}

func TestPresetFraction(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"small", editor.PresetSmall},
		{"medium", editor.PresetMedium},
		{"large", editor.PresetLarge},
	}
	for _, tt := range tests {
		got, err := presetFraction(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}
	_, err := presetFraction("huge")
	assert.Error(t, err)
}

func TestRegionCommandPresetAndScale(t *testing.T) {
	useConfig(t, config.Default())
	dir := t.TempDir()
	banner := filepath.Join(dir, "banner.png")
	require.NoError(t, imaging.Save(imaging.New(1200, 800, color.White), banner))
	out := filepath.Join(dir, "region.json")

	cmd := regionCmd()
	cmd.SetArgs([]string{"--banner", banner, "--preset", "small", "--scale-by", "1.5", "--out", out})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	r, err := readRegion(out)
	require.NoError(t, err)
	// 20% of 800 is 160, scaled to 240.
	assert.Equal(t, 240.0, r.Width)
	assert.Equal(t, 240.0, r.Height)
}

func TestCheckVisionCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llava", req.Model)
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, detection.SimpleTestPrompt, req.Messages[0].Content)
			assert.Len(t, req.Messages[0].Images, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   req.Model,
			Message: api.Message{Role: "assistant", Content: "A white square."},
			Done:    true,
		})
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Vision.OllamaURL = srv.URL
	cfg.Vision.Model = "llava"
	useConfig(t, cfg)

	img := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, imaging.Save(imaging.New(64, 64, color.White), img))

	var stdout bytes.Buffer
	cmd := checkVisionCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--image", img, "--backend", "ollama"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "A white square.\n", stdout.String())

	cmd = checkVisionCmd()
	cmd.SetArgs([]string{"--image", img})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "saliency backend has no model")

	cmd = checkVisionCmd()
	cmd.SetArgs([]string{"--image", filepath.Join(t.TempDir(), "missing.jpg"), "--backend", "ollama"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestLocatorBackends(t *testing.T) {
	cfg := config.Default()
	useConfig(t, cfg)
	engine, err := newEngine(nil)
	require.NoError(t, err)

	loc, err := locator(engine, "config")
	require.NoError(t, err)
	assert.IsType(t, engine.SaliencyLocator(), loc)

	for _, backend := range []string{"ollama", "llamacpp"} {
		loc, err = locator(engine, backend)
		require.NoError(t, err, backend)
		assert.IsType(t, &detection.Detector{}, loc)
	}

	cfg.Vision.LlamaCppURL = "not a url"
	_, err = locator(engine, "llamacpp")
	assert.Error(t, err)
	_, err = locator(engine, "gpt")
	assert.ErrorContains(t, err, "unknown vision backend")
}
