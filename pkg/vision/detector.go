package vision

import (
	"context"
	"errors"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/menta2k/photo-frame/pkg/types"
)

// SaliencyLocator finds the subject offline from edge strength and
// brightness, without any model.
type SaliencyLocator struct {
	config SaliencyConfig
}

// SaliencyConfig holds configuration for saliency detection
type SaliencyConfig struct {
	EdgeThreshold   float64
	ContrastWeight  float64
	ColorWeight     float64
	MinSubjectRatio float64
	// MaxDimension bounds the resolution the map is computed at.
	MaxDimension int
	// Keep merges every window scoring at least Keep times the best one.
	Keep float64
}

// DefaultSaliencyConfig returns the stock detection parameters
func DefaultSaliencyConfig() SaliencyConfig {
	return SaliencyConfig{
		EdgeThreshold:   0.01,
		ContrastWeight:  0.3,
		ColorWeight:     0.2,
		MinSubjectRatio: 0.05,
		MaxDimension:    256,
		Keep:            0.9,
	}
}

// NewSaliencyLocator creates a SaliencyLocator with default configuration
func NewSaliencyLocator() *SaliencyLocator {
	return &SaliencyLocator{config: DefaultSaliencyConfig()}
}

// NewSaliencyLocatorWithConfig creates a SaliencyLocator with custom configuration
func NewSaliencyLocatorWithConfig(config SaliencyConfig) *SaliencyLocator {
	return &SaliencyLocator{config: config}
}

// window is a square candidate region in analysis pixels.
type window struct {
	x, y, size int
	score      float64
}

// Locate returns the union of the highest scoring windows, normalized to
// the photo size.
func (l *SaliencyLocator) Locate(ctx context.Context, img image.Image) (types.Box, error) {
	if img == nil || img.Bounds().Empty() {
		return types.Box{}, errors.New("empty image")
	}
	maxDim := l.config.MaxDimension
	if maxDim <= 0 {
		maxDim = 256
	}
	small := imaging.Fit(img, maxDim, maxDim, imaging.Box)
	w, h := small.Bounds().Dx(), small.Bounds().Dy()

	sum := integral(l.saliencyMap(small), w, h)

	minArea := float64(w*h) * l.config.MinSubjectRatio
	var windows []window
	for _, size := range []int{w / 20, w / 16, w / 12, w / 8, w / 4} {
		if err := ctx.Err(); err != nil {
			return types.Box{}, err
		}
		if size < 10 || size > h || float64(size*size) < minArea {
			continue
		}
		step := max(size/8, 1)
		for y := 0; y <= h-size; y += step {
			for x := 0; x <= w-size; x += step {
				score := areaSum(sum, w, x, y, size, size) / float64(size*size)
				if score > l.config.EdgeThreshold {
					windows = append(windows, window{x: x, y: y, size: size, score: score})
				}
			}
		}
	}
	if len(windows) == 0 {
		return types.Box{}, ErrNoSubject
	}

	sort.SliceStable(windows, func(i, j int) bool { return windows[i].score > windows[j].score })
	if len(windows) > 10 {
		windows = windows[:10]
	}

	cut := windows[0].score * l.config.Keep
	x0, y0 := windows[0].x, windows[0].y
	x1, y1 := x0+windows[0].size, y0+windows[0].size
	for _, win := range windows[1:] {
		if win.score < cut {
			break
		}
		x0, y0 = min(x0, win.x), min(y0, win.y)
		x1, y1 = max(x1, win.x+win.size), max(y1, win.y+win.size)
	}

	return types.Box{
		X: float64(x0) / float64(w),
		Y: float64(y0) / float64(h),
		W: float64(x1-x0) / float64(w),
		H: float64(y1-y0) / float64(h),
	}, nil
}

// saliencyMap scores each pixel by its color distance to its 8 neighbors
// and its brightness. Border pixels score zero.
func (l *SaliencyLocator) saliencyMap(img *image.NRGBA) []float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]float64, w*h)
	neighbors := [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			r1, g1, b1 := rgbAt(img, x, y)

			var edge float64
			for _, o := range neighbors {
				r2, g2, b2 := rgbAt(img, x+o[0], y+o[1])
				dr, dg, db := r1-r2, g1-g2, b1-b2
				edge += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edge /= 8 * 255

			brightness := (r1 + g1 + b1) / (3 * 255)
			out[y*w+x] = l.config.ContrastWeight*edge + l.config.ColorWeight*brightness
		}
	}
	return out
}

func rgbAt(img *image.NRGBA, x, y int) (float64, float64, float64) {
	i := y*img.Stride + x*4
	a := float64(img.Pix[i+3]) / 255
	return float64(img.Pix[i]) * a, float64(img.Pix[i+1]) * a, float64(img.Pix[i+2]) * a
}

// integral returns the summed-area table of m with one row and column of
// zero padding.
func integral(m []float64, w, h int) []float64 {
	s := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += m[y*w+x]
			s[(y+1)*(w+1)+x+1] = s[y*(w+1)+x+1] + row
		}
	}
	return s
}

func areaSum(s []float64, w, x, y, rw, rh int) float64 {
	stride := w + 1
	return s[(y+rh)*stride+x+rw] - s[y*stride+x+rw] - s[(y+rh)*stride+x] + s[y*stride+x]
}
