package frames

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return img
}

func TestFrameName(t *testing.T) {
	assert.Equal(t, "frame_000000.png", FrameName(0))
	assert.Equal(t, "frame_000042.png", FrameName(42))
	assert.Equal(t, "frame_123456.png", FrameName(123456))
}

func TestAppendAssignsContiguousIndices(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for want := 0; want < 3; want++ {
		got, err := store.Append(testImage(10, 10))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestListReturnsOrderedSequenceWithSizes(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	sizes := [][2]int{{40, 30}, {20, 50}, {60, 10}}
	for _, s := range sizes {
		_, err := store.Append(testImage(s[0], s[1]))
		require.NoError(t, err)
	}

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)

	for i, fi := range infos {
		assert.Equal(t, i, fi.Index)
		assert.Equal(t, sizes[i][0], fi.Width)
		assert.Equal(t, sizes[i][1], fi.Height)
		assert.Equal(t, FrameName(i), filepath.Base(fi.Path))
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Append(testImage(10, 10))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_12.png"), []byte("x"), 0644))

	infos, err := store.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestListRejectsGappySequence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Append(testImage(10, 10))
	require.NoError(t, err)
	_, err = store.Append(testImage(10, 10))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, FrameName(0))))

	_, err = store.List()
	assert.ErrorContains(t, err, "not contiguous")
}

func TestRenumberReordersAndDeletes(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	// Widths 10, 20, 30, 40 identify the frames across the rewrite.
	for i := 1; i <= 4; i++ {
		_, err := store.Append(testImage(10*i, 10))
		require.NoError(t, err)
	}

	// Keep frames 3, 0, 2 in that order; frame 1 is deleted.
	require.NoError(t, store.Renumber([]int{3, 0, 2}))

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, 40, infos[0].Width)
	assert.Equal(t, 10, infos[1].Width)
	assert.Equal(t, 30, infos[2].Width)

	// Appending resumes from the new sequence length.
	idx, err := store.Append(testImage(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestRenumberRejectsOutOfRangeIndex(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Append(testImage(10, 10))
	require.NoError(t, err)

	assert.Error(t, store.Renumber([]int{0, 1}))
	assert.Error(t, store.Renumber([]int{-1}))

	// The failed calls must not have disturbed the sequence.
	infos, err := store.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestReadAllRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Append(testImage(12, 8))
	require.NoError(t, err)
	_, err = store.Append(testImage(6, 4))
	require.NoError(t, err)

	imgs, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, image.Pt(12, 8), imgs[0].Bounds().Size())
	assert.Equal(t, image.Pt(6, 4), imgs[1].Bounds().Size())
}
