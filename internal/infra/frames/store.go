// Package frames owns the on-disk kept-frame sequence. Files follow the
// fixed-width convention frame_000000.png so lexical order equals numeric
// order; the store never trusts raw directory iteration order as a sequence.
package frames

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/layout"
)

const (
	framePrefix = "frame_"
	frameExt    = ".png"
	indexWidth  = 6
)

// Store reads and writes a single frame directory.
type Store struct {
	dir  string
	next int
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frame directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// FrameName formats the canonical file name for an output index.
func FrameName(index int) string {
	return fmt.Sprintf("%s%0*d%s", framePrefix, indexWidth, index, frameExt)
}

// Append persists img under the next contiguous output index and returns
// that index. This is the pipeline's sink.
func (s *Store) Append(img image.Image) (int, error) {
	index := s.next
	path := filepath.Join(s.dir, FrameName(index))
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	s.next++
	return index, nil
}

// List returns the stored sequence in order with intrinsic dimensions,
// verifying that the indices on disk are contiguous from zero.
func (s *Store) List() ([]layout.FrameInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory %s: %w", s.dir, err)
	}

	var infos []layout.FrameInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		index, ok := parseFrameName(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		w, h, err := decodeSize(path)
		if err != nil {
			return nil, &entity.DecodeError{FrameIndex: index, Err: err}
		}
		infos = append(infos, layout.FrameInfo{Index: index, Path: path, Width: w, Height: h})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Index < infos[j].Index })
	for i, fi := range infos {
		if fi.Index != i {
			return nil, fmt.Errorf("frame sequence in %s is not contiguous: found index %d at position %d", s.dir, fi.Index, i)
		}
	}
	return infos, nil
}

// ReadAll decodes the full stored sequence in order.
func (s *Store) ReadAll() ([]image.Image, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	imgs := make([]image.Image, 0, len(infos))
	for _, fi := range infos {
		f, err := os.Open(fi.Path)
		if err != nil {
			return nil, &entity.DecodeError{FrameIndex: fi.Index, Err: err}
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return nil, &entity.DecodeError{FrameIndex: fi.Index, Err: err}
		}
		imgs = append(imgs, img)
	}
	return imgs, nil
}

// Renumber rewrites the directory to hold exactly the frames named by order
// (current indices, possibly reordered and shorter) under fresh contiguous
// names. This is the single point where an edit session's result becomes
// durable.
func (s *Store) Renumber(order []int) error {
	infos, err := s.List()
	if err != nil {
		return err
	}
	for _, idx := range order {
		if idx < 0 || idx >= len(infos) {
			return fmt.Errorf("renumber: index %d out of range for %d frames", idx, len(infos))
		}
	}

	tmp, err := os.MkdirTemp(s.dir, "renumber-")
	if err != nil {
		return fmt.Errorf("create renumber staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	for newIdx, oldIdx := range order {
		src := infos[oldIdx].Path
		dst := filepath.Join(tmp, FrameName(newIdx))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("stage frame %d: %w", oldIdx, err)
		}
	}

	for _, fi := range infos {
		if err := os.Remove(fi.Path); err != nil {
			return fmt.Errorf("remove %s: %w", fi.Path, err)
		}
	}
	for newIdx := range order {
		name := FrameName(newIdx)
		if err := os.Rename(filepath.Join(tmp, name), filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
	}

	s.next = len(order)
	return nil
}

func parseFrameName(name string) (int, bool) {
	if !strings.HasPrefix(name, framePrefix) || !strings.HasSuffix(name, frameExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, framePrefix), frameExt)
	if len(digits) != indexWidth {
		return 0, false
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return index, true
}

func decodeSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
