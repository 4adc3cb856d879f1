package layout

import "math"

// usableFraction caps frames at 90% of the page in either dimension; the
// remainder is margin.
const usableFraction = 0.9

// earlyBreakFill, earlyBreakReserve: a page may close early for balance once
// it holds 70% of the per-page target, provided at least 30% of a page's
// worth of content remains in the section.
const (
	earlyBreakFill    = 0.7
	earlyBreakReserve = 0.3
)

// FrameInfo is one kept frame as the packer sees it: its identity, where its
// pixels live, and its intrinsic size.
type FrameInfo struct {
	Index  int
	Path   string
	Width  int
	Height int
}

// Placement positions one scaled frame on a page. Offsets are from the page's
// top-left corner.
type Placement struct {
	Frame  FrameInfo
	X, Y   float64
	Width  float64
	Height float64
}

type Page struct {
	Placements []Placement
}

// PageSpec is the fixed output geometry: full page size and the vertical gap
// between frames sharing a page, all in document units.
type PageSpec struct {
	Width   float64
	Height  float64
	Spacing float64
}

// Paginate plans sections from the manual breaks and packs each section.
// Pages are concatenated in section order; a section never shares a page with
// the next one, even when that wastes space on its final page.
func Paginate(frames []FrameInfo, breaks []int, spec PageSpec) ([]Page, error) {
	sections, err := PlanSections(len(frames), breaks)
	if err != nil {
		return nil, err
	}
	var pages []Page
	for _, s := range sections {
		pages = append(pages, PackSection(frames[s.Start:s.End], spec)...)
	}
	return pages, nil
}

// PackSection greedily fills pages with the section's frames in order. The
// hard bound (accumulated height within 90% of page height) is always
// honored; a soft bound closes pages early so the section's pages come out
// visually balanced rather than maximally greedy. A frame too tall to fit any
// page at natural scale gets a forced page of its own, shrunk to fit both
// dimensions.
func PackSection(frames []FrameInfo, spec PageSpec) []Page {
	usableW := usableFraction * spec.Width
	usableH := usableFraction * spec.Height

	scaled := make([][2]float64, len(frames))
	total := 0.0
	for i, f := range frames {
		w, h := naturalSize(f, usableW)
		scaled[i] = [2]float64{w, h}
		total += h
	}

	estPages := math.Ceil(total / usableH)
	if estPages < 1 {
		estPages = 1
	}
	target := total / estPages

	var pages []Page
	i := 0
	for i < len(frames) {
		first := i
		height := 0.0

		for i < len(frames) {
			h := scaled[i][1]
			needed := h
			if i > first {
				needed += spec.Spacing
			}

			if height+needed > usableH {
				break
			}

			if i > first && height > earlyBreakFill*target &&
				height+needed > target && i < len(frames)-1 {
				remaining := 0.0
				for j := i; j < len(frames); j++ {
					remaining += scaled[j][1]
				}
				if remaining > earlyBreakReserve*usableH {
					break
				}
			}

			height += needed
			i++
		}

		if i == first {
			// Single frame taller than the page: force it onto its
			// own page, constrained by height as well as width.
			pages = append(pages, oversizedPage(frames[i], spec, usableW, usableH))
			i++
			continue
		}

		pages = append(pages, placeRun(frames[first:i], scaled[first:i], spec, height))
	}
	return pages
}

// naturalSize scales a frame to at most 90% of page width, never upscaling.
func naturalSize(f FrameInfo, usableW float64) (w, h float64) {
	scale := usableW / float64(f.Width)
	if scale > 1 {
		scale = 1
	}
	return float64(f.Width) * scale, float64(f.Height) * scale
}

// placeRun stacks the frames vertically, each centered horizontally, with the
// whole stack centered vertically on the page.
func placeRun(frames []FrameInfo, scaled [][2]float64, spec PageSpec, stackHeight float64) Page {
	y := (spec.Height - stackHeight) / 2
	page := Page{Placements: make([]Placement, 0, len(frames))}
	for i, f := range frames {
		w, h := scaled[i][0], scaled[i][1]
		page.Placements = append(page.Placements, Placement{
			Frame:  f,
			X:      (spec.Width - w) / 2,
			Y:      y,
			Width:  w,
			Height: h,
		})
		y += h + spec.Spacing
	}
	return page
}

func oversizedPage(f FrameInfo, spec PageSpec, usableW, usableH float64) Page {
	scale := math.Min(usableW/float64(f.Width), usableH/float64(f.Height))
	w := float64(f.Width) * scale
	h := float64(f.Height) * scale
	return Page{Placements: []Placement{{
		Frame:  f,
		X:      (spec.Width - w) / 2,
		Y:      (spec.Height - h) / 2,
		Width:  w,
		Height: h,
	}}}
}
