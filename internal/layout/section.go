// Package layout distributes a deduplicated frame sequence across fixed-size
// document pages: manual breaks partition the sequence into sections, and a
// greedy, balance-biased packer fills pages within each section.
package layout

import (
	"sort"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
)

// Section is a half-open range [Start, End) of kept-frame indices laid out
// independently of its neighbours.
type Section struct {
	Start int
	End   int
}

// PlanSections partitions [0, n) at the given break indices. A break b splits
// after frame b, so the sections are [0, b1+1), [b1+1, b2+1), ..., [bn+1, n).
// Breaks are deduplicated and sorted first; any break outside [0, n-1) is
// rejected with *entity.InvalidBreakError. n == 0 yields no sections.
func PlanSections(n int, breaks []int) ([]Section, error) {
	for _, b := range breaks {
		if b < 0 || b >= n-1 {
			return nil, &entity.InvalidBreakError{Break: b, FrameCount: n}
		}
	}
	if n == 0 {
		return nil, nil
	}

	uniq := make([]int, 0, len(breaks))
	seen := make(map[int]struct{}, len(breaks))
	for _, b := range breaks {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		uniq = append(uniq, b)
	}
	sort.Ints(uniq)

	sections := make([]Section, 0, len(uniq)+1)
	start := 0
	for _, b := range uniq {
		sections = append(sections, Section{Start: start, End: b + 1})
		start = b + 1
	}
	sections = append(sections, Section{Start: start, End: n})
	return sections, nil
}
