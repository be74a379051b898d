package compositor

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/menta2k/photo-frame/pkg/types"
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpg"
	WebP Format = "webp"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// ParseFormat accepts a format name or file extension, with or without the dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png", "":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	case "gif":
		return GIF, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	case GIF:
		return "image/gif"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// EncodeOptions selects the output encoding
type EncodeOptions struct {
	Format   Format
	Quality  int  // JPEG/WebP quality (1-100)
	Lossless bool // WebP lossless mode
}

// DefaultEncodeOptions returns lossless PNG output
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Format: PNG, Quality: 90}
}

// Encode writes img to w. Any encoder failure is a *types.RenderError.
func Encode(w io.Writer, img image.Image, opts EncodeOptions) error {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	var err error
	switch opts.Format {
	case WebP:
		err = webp.Encode(w, img, &webp.Options{Lossless: opts.Lossless, Quality: float32(opts.Quality)})
	case JPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	case PNG, "":
		err = imaging.Encode(w, img, imaging.PNG)
	case GIF:
		err = imaging.Encode(w, img, imaging.GIF)
	case BMP:
		err = imaging.Encode(w, img, imaging.BMP)
	case TIFF:
		err = imaging.Encode(w, img, imaging.TIFF)
	default:
		err = fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	if err != nil {
		return &types.RenderError{Stage: "encode", Err: err}
	}
	return nil
}

// EncodeBytes encodes img into memory.
func EncodeBytes(img image.Image, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
