package compositor

import (
	"image"

	"golang.org/x/image/vector"

	"github.com/menta2k/photo-frame/pkg/region"
)

// kappa places cubic Bézier control points for a quarter circle.
const kappa = 0.5522847498307936

// clipMask rasterizes the placeholder shape over bounds. The returned mask
// uses the same coordinates as the banner.
func clipMask(r region.Region, bounds image.Rectangle) *image.Alpha {
	w, h := bounds.Dx(), bounds.Dy()
	z := vector.NewRasterizer(w, h)

	// Rasterizer coordinates are relative to bounds.Min.
	ox := float32(r.X - float64(bounds.Min.X))
	oy := float32(r.Y - float64(bounds.Min.Y))

	switch r.Shape {
	case region.Circle:
		rad := float32(r.Radius())
		cx := ox + float32(r.Width/2)
		cy := oy + float32(r.Height/2)
		k := rad * kappa
		z.MoveTo(cx+rad, cy)
		z.CubeTo(cx+rad, cy+k, cx+k, cy+rad, cx, cy+rad)
		z.CubeTo(cx-k, cy+rad, cx-rad, cy+k, cx-rad, cy)
		z.CubeTo(cx-rad, cy-k, cx-k, cy-rad, cx, cy-rad)
		z.CubeTo(cx+k, cy-rad, cx+rad, cy-k, cx+rad, cy)
		z.ClosePath()
	default:
		x1 := ox + float32(r.Width)
		y1 := oy + float32(r.Height)
		z.MoveTo(ox, oy)
		z.LineTo(x1, oy)
		z.LineTo(x1, y1)
		z.LineTo(ox, y1)
		z.ClosePath()
	}

	local := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(local, local.Bounds(), image.Opaque, image.Point{})

	// Rebase onto banner coordinates without copying the pixels.
	local.Rect = bounds
	return local
}
