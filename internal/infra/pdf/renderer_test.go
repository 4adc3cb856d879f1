package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/layout"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	path := filepath.Join(dir, "frame_000000.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestPageSize(t *testing.T) {
	w, h := PageSize(entity.OrientationPortrait)
	assert.InDelta(t, 595.28, w, 1e-9)
	assert.InDelta(t, 841.89, h, 1e-9)

	w, h = PageSize(entity.OrientationLandscape)
	assert.InDelta(t, 841.89, w, 1e-9)
	assert.InDelta(t, 595.28, h, 1e-9)
}

func TestRenderEmptyDocumentIsAnInputError(t *testing.T) {
	r := NewRenderer(zap.NewNop())
	err := r.Render(nil, layout.PageSpec{Width: 595.28, Height: 841.89}, filepath.Join(t.TempDir(), "out.pdf"))
	assert.ErrorIs(t, err, entity.ErrEmptyInput)
}

func TestRenderWritesOnePagePerPackedPage(t *testing.T) {
	dir := t.TempDir()
	framePath := writeTestPNG(t, dir, 100, 60)

	spec := layout.PageSpec{Width: 595.28, Height: 841.89, Spacing: 10}
	frame := layout.FrameInfo{Index: 0, Path: framePath, Width: 100, Height: 60}
	pages := []layout.Page{
		{Placements: []layout.Placement{{Frame: frame, X: 247.64, Y: 390.945, Width: 100, Height: 60}}},
		{Placements: []layout.Placement{{Frame: frame, X: 247.64, Y: 390.945, Width: 100, Height: 60}}},
	}

	outPath := filepath.Join(dir, "out.pdf")
	require.NoError(t, NewRenderer(zap.NewNop()).Render(pages, spec, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Greater(t, len(data), 4)
	assert.Equal(t, "%PDF", string(data[:4]))
	// The page tree's /Count reflects both packed pages.
	assert.True(t, bytes.Contains(data, []byte("/Count 2")), "expected a two-page document")
}

func TestRenderMissingImageFails(t *testing.T) {
	spec := layout.PageSpec{Width: 595.28, Height: 841.89}
	pages := []layout.Page{{Placements: []layout.Placement{{
		Frame: layout.FrameInfo{Index: 0, Path: filepath.Join(t.TempDir(), "missing.png"), Width: 10, Height: 10},
		X:     10, Y: 10, Width: 10, Height: 10,
	}}}}

	err := NewRenderer(zap.NewNop()).Render(pages, spec, filepath.Join(t.TempDir(), "out.pdf"))
	assert.Error(t, err)
}
