package imaging

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func noisyImage(w, h int, base uint8, amplitude int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := int(base) + rng.Intn(2*amplitude+1) - amplitude
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			img.Set(x, y, color.RGBA{uint8(v), uint8(v), uint8(v), 255})
		}
	}
	return img
}

func TestIdenticalImagesAreDuplicatesAtAnyThreshold(t *testing.T) {
	img := noisyImage(64, 48, 128, 100, 1)

	for _, threshold := range []float64{0.05, 0.5, 0.95, 0.999} {
		cmp := NewComparator(threshold)
		assert.True(t, cmp.Duplicate(img, img), "threshold %v", threshold)
	}
}

func TestDifferentDimensionsAreNeverDuplicates(t *testing.T) {
	a := uniformImage(64, 48, 128)
	b := uniformImage(64, 47, 128)

	cmp := NewComparator(0.05)
	assert.False(t, cmp.Duplicate(a, b))
}

func TestDistinctScenesAreNotDuplicates(t *testing.T) {
	a := noisyImage(64, 48, 40, 30, 2)
	b := noisyImage(64, 48, 210, 30, 3)

	cmp := NewComparator(0.95)
	assert.False(t, cmp.Duplicate(a, b))
}

func TestSSIMIsOneForIdenticalImages(t *testing.T) {
	g := Luminance(noisyImage(32, 32, 100, 80, 4))
	assert.InDelta(t, 1.0, SSIM(g, g), 1e-9)
}

func TestSSIMIsSymmetric(t *testing.T) {
	a := Luminance(noisyImage(32, 32, 100, 40, 5))
	b := Luminance(noisyImage(32, 32, 110, 40, 6))
	assert.InDelta(t, SSIM(a, b), SSIM(b, a), 1e-9)
}

func TestThresholdIsStrict(t *testing.T) {
	// A score exactly equal to the threshold is not a duplicate.
	img := uniformImage(32, 32, 128)
	cmp := Comparator{Threshold: 1.0}
	assert.False(t, cmp.Duplicate(img, img))
}

func TestRaisingThresholdNeverAddsDuplicates(t *testing.T) {
	a := noisyImage(64, 48, 128, 20, 7)
	b := noisyImage(64, 48, 128, 20, 8)

	prev := true
	for _, threshold := range []float64{0.05, 0.25, 0.5, 0.75, 0.95, 0.999} {
		dup := NewComparator(threshold).Duplicate(a, b)
		if !prev {
			assert.False(t, dup, "duplicate decision flipped back on at threshold %v", threshold)
		}
		prev = dup
	}
}

func TestTallImagesAreDownscaledBeforeScoring(t *testing.T) {
	// 600 px tall exercises the 480 px comparison bound; identical input
	// must still score as duplicate.
	img := noisyImage(80, 600, 128, 60, 9)

	cmp := NewComparator(0.95)
	assert.True(t, cmp.Duplicate(img, img))
}
