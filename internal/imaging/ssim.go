package imaging

import "image"

const (
	// DefaultSimilarityThreshold is the SSIM score above which two
	// consecutive frames count as duplicates.
	DefaultSimilarityThreshold = 0.95

	// maxCompareHeight bounds comparison cost: taller frame pairs are
	// downscaled proportionally before scoring.
	maxCompareHeight = 480

	ssimWindow = 7
	c1         = (0.01 * 255) * (0.01 * 255)
	c2         = (0.03 * 255) * (0.03 * 255)
)

// Comparator decides whether two frames are visually equivalent.
type Comparator struct {
	// Threshold in (0,1); a score exactly equal to it is NOT a duplicate.
	Threshold float64
}

func NewComparator(threshold float64) Comparator {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return Comparator{Threshold: threshold}
}

// Duplicate reports whether b duplicates a. Frames of differing raw
// dimensions are never duplicates and no score is computed for them.
func (c Comparator) Duplicate(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}

	ga, gb := Luminance(a), Luminance(b)

	if h := ga.Bounds().Dy(); h > maxCompareHeight {
		scale := float64(maxCompareHeight) / float64(h)
		w := int(float64(ga.Bounds().Dx()) * scale)
		ga = scaleGray(ga, w, maxCompareHeight)
		gb = scaleGray(gb, w, maxCompareHeight)
	}

	return SSIM(ga, gb) > c.Threshold
}

// SSIM computes the mean structural similarity index of two equally sized
// grayscale images over sliding 7x7 windows (uniform weighting, unbiased
// variance), the same estimator scikit-image uses for 8-bit input.
func SSIM(x, y *image.Gray) float64 {
	w, h := x.Bounds().Dx(), x.Bounds().Dy()

	win := ssimWindow
	if w < win || h < win {
		if w < h {
			win = w
		} else {
			win = h
		}
		if win < 1 {
			return 0
		}
	}

	sx := newSummed(x, w, h)
	sy := newSummed(y, w, h)
	sxy := newSummedCross(x, y, w, h)

	n := float64(win * win)
	norm := 1.0 / (n - 1)
	if win == 1 {
		norm = 0
	}

	var total float64
	var count int
	for ty := 0; ty+win <= h; ty++ {
		for tx := 0; tx+win <= w; tx++ {
			s1x, s2x := sx.window(tx, ty, win)
			s1y, s2y := sy.window(tx, ty, win)
			sprod, _ := sxy.window(tx, ty, win)

			ux := s1x / n
			uy := s1y / n
			vx := (s2x - s1x*s1x/n) * norm
			vy := (s2y - s1y*s1y/n) * norm
			cov := (sprod - s1x*s1y/n) * norm

			num := (2*ux*uy + c1) * (2*cov + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// summed holds summed-area tables of values and squared values so any window
// sum is four lookups.
type summed struct {
	s1, s2 []float64
	w      int
}

func newSummed(g *image.Gray, w, h int) *summed {
	t := &summed{
		s1: make([]float64, (w+1)*(h+1)),
		s2: make([]float64, (w+1)*(h+1)),
		w:  w + 1,
	}
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, p := range row {
			v := float64(p)
			i := (y+1)*t.w + x + 1
			t.s1[i] = v + t.s1[i-1] + t.s1[i-t.w] - t.s1[i-t.w-1]
			t.s2[i] = v*v + t.s2[i-1] + t.s2[i-t.w] - t.s2[i-t.w-1]
		}
	}
	return t
}

func newSummedCross(a, b *image.Gray, w, h int) *summed {
	t := &summed{
		s1: make([]float64, (w+1)*(h+1)),
		s2: make([]float64, (w+1)*(h+1)),
		w:  w + 1,
	}
	for y := 0; y < h; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+w]
		rb := b.Pix[y*b.Stride : y*b.Stride+w]
		for x := 0; x < w; x++ {
			v := float64(ra[x]) * float64(rb[x])
			i := (y+1)*t.w + x + 1
			t.s1[i] = v + t.s1[i-1] + t.s1[i-t.w] - t.s1[i-t.w-1]
		}
	}
	return t
}

func (t *summed) window(x, y, win int) (sum1, sum2 float64) {
	a := y*t.w + x
	b := y*t.w + x + win
	c := (y+win)*t.w + x
	d := (y+win)*t.w + x + win
	sum1 = t.s1[d] - t.s1[b] - t.s1[c] + t.s1[a]
	sum2 = t.s2[d] - t.s2[b] - t.s2[c] + t.s2[a]
	return
}
