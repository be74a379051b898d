// Package loader turns banner and photo bytes into decoded rasters.
//
// Every failure to produce a raster is reported as a *types.DecodeError.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/photo-frame/pkg/types"
)

// MaxImageBytes caps uploads and downloads at 10MB.
const MaxImageBytes = 10 << 20

// Loader decodes images from memory, files and URLs
type Loader struct {
	client   *http.Client
	maxBytes int64
}

// Option configures a Loader
type Option func(*Loader)

// WithHTTPClient sets the client used for URL downloads
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithMaxBytes overrides MaxImageBytes
func WithMaxBytes(n int64) Option {
	return func(l *Loader) { l.maxBytes = n }
}

// New creates a Loader with a 30 second download timeout
func New(opts ...Option) *Loader {
	l := &Loader{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: MaxImageBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Decode decodes image bytes. source names the image in errors ("banner",
// "photo", a path or URL).
func (l *Loader) Decode(source string, data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &types.DecodeError{Source: source, Err: errors.New("empty input")}
	}
	if int64(len(data)) > l.maxBytes {
		return nil, &types.DecodeError{Source: source, Err: fmt.Errorf("image is %d bytes, limit is %d", len(data), l.maxBytes)}
	}
	if Sniff(data) == "" {
		kind, _ := filetype.Match(data)
		return nil, &types.DecodeError{Source: source, Err: fmt.Errorf("not an image (detected %s)", describeKind(kind.MIME.Value))}
	}

	// imaging applies the EXIF orientation phone cameras write.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return wimg, nil
	}
	return nil, &types.DecodeError{Source: source, Err: err}
}

// DecodeReader reads at most the byte limit from r and decodes it.
func (l *Loader) DecodeReader(source string, r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, &types.DecodeError{Source: source, Err: fmt.Errorf("failed to read image data: %w", err)}
	}
	return l.Decode(source, data)
}

// LoadImage loads an image from a file path
func (l *Loader) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()
	return l.DecodeReader(path, f)
}

// LoadImageFromURL downloads and decodes an image over http or https
func (l *Loader) LoadImageFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "photo-frame/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, &types.DecodeError{Source: imageURL, Err: fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)}
	}

	return l.DecodeReader(imageURL, resp.Body)
}

// LoadImageSmart loads an image from either a file path or URL
func (l *Loader) LoadImageSmart(ctx context.Context, src string) (image.Image, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return l.LoadImageFromURL(ctx, src)
	}
	return l.LoadImage(src)
}

// Info returns basic information about an image
func Info(img image.Image, format string) types.ImageInfo {
	b := img.Bounds()
	info := types.ImageInfo{Width: b.Dx(), Height: b.Dy(), Format: format}
	if b.Dy() > 0 {
		info.AspectRatio = float64(b.Dx()) / float64(b.Dy())
	}
	return info
}

// Sniff returns the MIME type detected from the leading bytes, or "" when
// the data is not a recognized image.
func Sniff(data []byte) string {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

func describeKind(mime string) string {
	if mime == "" {
		return "unknown data"
	}
	return mime
}
