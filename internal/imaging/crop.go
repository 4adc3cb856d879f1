package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
)

// DefaultCropThreshold is the luminance level at or below which a pixel
// counts as letterbox background.
const DefaultCropThreshold uint8 = 30

// CropBorders returns the tightest axis-aligned sub-image containing every
// pixel whose luminance exceeds threshold. A uniformly dark image is returned
// unmodified; the result is never empty.
func CropBorders(img image.Image, threshold uint8) image.Image {
	gray := Luminance(img)
	gb := gray.Bounds()

	minX, minY := gb.Max.X, gb.Max.Y
	maxX, maxY := gb.Min.X-1, gb.Min.Y-1

	for y := gb.Min.Y; y < gb.Max.Y; y++ {
		row := gray.Pix[(y-gb.Min.Y)*gray.Stride : (y-gb.Min.Y)*gray.Stride+gb.Dx()]
		for x, v := range row {
			if v > threshold {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				maxY = y
			}
		}
	}

	if maxX < minX {
		return img
	}

	b := img.Bounds()
	rect := image.Rect(b.Min.X+minX, b.Min.Y+minY, b.Min.X+maxX+1, b.Min.Y+maxY+1)
	return cropCopy(img, rect)
}

// CropMargins cuts the given per-edge pixel counts from the image. A margin
// set that consumes the whole image is an input error, not a clamp.
func CropMargins(img image.Image, m entity.Margins) (image.Image, error) {
	if m.Zero() {
		return img, nil
	}
	b := img.Bounds()
	rect := image.Rect(b.Min.X+m.Left, b.Min.Y+m.Top, b.Max.X-m.Right, b.Max.Y-m.Bottom)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("crop margins %+v leave no pixels of a %dx%d frame", m, b.Dx(), b.Dy())
	}
	return cropCopy(img, rect), nil
}

// cropCopy extracts rect into a freshly backed image so the original frame
// can be released.
func cropCopy(img image.Image, rect image.Rectangle) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(out, image.Point{}, img, rect, draw.Src, nil)
	return out
}
