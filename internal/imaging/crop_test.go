package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
)

func uniformImage(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// letterboxed draws a bright rectangle on a dark background.
func letterboxed(w, h int, content image.Rectangle) *image.RGBA {
	img := uniformImage(w, h, 5)
	for y := content.Min.Y; y < content.Max.Y; y++ {
		for x := content.Min.X; x < content.Max.X; x++ {
			img.Set(x, y, color.RGBA{220, 220, 220, 255})
		}
	}
	return img
}

func TestCropBordersRemovesLetterbox(t *testing.T) {
	content := image.Rect(10, 5, 30, 25)
	img := letterboxed(40, 30, content)

	out := CropBorders(img, 30)

	assert.Equal(t, content.Dx(), out.Bounds().Dx())
	assert.Equal(t, content.Dy(), out.Bounds().Dy())
}

func TestCropBordersNeverGrows(t *testing.T) {
	img := letterboxed(64, 48, image.Rect(3, 7, 60, 40))

	out := CropBorders(img, 30)

	assert.LessOrEqual(t, out.Bounds().Dx(), 64)
	assert.LessOrEqual(t, out.Bounds().Dy(), 48)
}

func TestCropBordersIdempotent(t *testing.T) {
	img := letterboxed(40, 30, image.Rect(10, 5, 30, 25))

	once := CropBorders(img, 30)
	twice := CropBorders(once, 30)

	assert.Equal(t, once.Bounds(), twice.Bounds())
}

func TestCropBordersDarkFrameIsIdentity(t *testing.T) {
	img := uniformImage(20, 20, 10)

	out := CropBorders(img, 30)

	assert.Equal(t, image.Image(img), out, "uniformly dark frame must be returned unmodified")
}

func TestCropBordersThresholdIsStrict(t *testing.T) {
	// Pixels exactly at the threshold count as background.
	img := uniformImage(20, 20, 30)

	out := CropBorders(img, 30)

	assert.Equal(t, image.Image(img), out)
}

func TestCropMargins(t *testing.T) {
	img := uniformImage(100, 80, 200)

	out, err := CropMargins(img, entity.Margins{Top: 5, Bottom: 10, Left: 2, Right: 3})
	require.NoError(t, err)

	assert.Equal(t, 95, out.Bounds().Dx())
	assert.Equal(t, 65, out.Bounds().Dy())
}

func TestCropMarginsZeroIsIdentity(t *testing.T) {
	img := uniformImage(10, 10, 200)

	out, err := CropMargins(img, entity.Margins{})
	require.NoError(t, err)
	assert.Equal(t, image.Image(img), out)
}

func TestCropMarginsConsumingImageIsError(t *testing.T) {
	img := uniformImage(10, 10, 200)

	_, err := CropMargins(img, entity.Margins{Left: 6, Right: 6})
	assert.Error(t, err)
}
