package editor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/region"
)

var (
	outlineColor = color.NRGBA{0, 170, 255, 255}
	handleColor  = color.NRGBA{255, 204, 0, 255}
)

// Preview renders the banner at display size with the placeholder outlined
// and the resize handle marked.
func (e *Editor) Preview(banner image.Image) *image.NRGBA {
	w := int(math.Max(1, math.Round(e.mapper.Display.W)))
	h := int(math.Max(1, math.Round(e.mapper.Display.H)))
	img := imaging.Resize(banner, w, h, imaging.Lanczos)

	box := e.DisplayBox()
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))

	if e.region.Shape == region.Circle {
		drawRing(img, box.Center(), math.Min(box.Width, box.Height)/2, float64(stroke), outlineColor)
	} else {
		drawBox(img, box, outlineColor, stroke)
	}

	hs := int(math.Max(4, e.config.HandleSize/2))
	corner := box.Max()
	cx, cy := int(math.Round(corner.X)), int(math.Round(corner.Y))
	for y := cy - hs; y < cy+hs; y++ {
		drawHLine(img, y, cx-hs, cx+hs, handleColor)
	}
	return img
}

func drawBox(img *image.NRGBA, r geometry.Rect, c color.NRGBA, stroke int) {
	x0, y0 := int(math.Round(r.X)), int(math.Round(r.Y))
	x1, y1 := int(math.Round(r.X+r.Width)), int(math.Round(r.Y+r.Height))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

// drawRing paints pixels whose centers lie within stroke of the circle edge.
func drawRing(img *image.NRGBA, center geometry.Point, radius, stroke float64, c color.NRGBA) {
	b := img.Bounds()
	x0 := max(b.Min.X, int(math.Floor(center.X-radius)))
	x1 := min(b.Max.X, int(math.Ceil(center.X+radius)))
	y0 := max(b.Min.Y, int(math.Floor(center.Y-radius)))
	y1 := min(b.Max.Y, int(math.Ceil(center.Y+radius)))
	inner := math.Max(0, radius-stroke)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			d := math.Hypot(float64(x)+0.5-center.X, float64(y)+0.5-center.Y)
			if d <= radius && d >= inner {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
