// Package imaging holds the pixel-level operations of the pipeline: luminance
// conversion, border and margin cropping, and the SSIM duplicate comparator.
package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Luminance converts an image to a single 8-bit channel using the standard
// Rec. 601 weights (the same weighting OpenCV's BGR2GRAY applies).
func Luminance(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// scaleGray resamples a grayscale image to the given size.
func scaleGray(g *image.Gray, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), g, g.Bounds(), draw.Src, nil)
	return out
}
