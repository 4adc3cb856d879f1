// Package dedup reduces a stream of decoded frames to the ordered sequence of
// frames that are not near-duplicates of their predecessor.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"go.uber.org/zap"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
	"github.com/macaquedev/score-video-scraper/internal/domain/port"
	"github.com/macaquedev/score-video-scraper/internal/imaging"
)

// decodeDepth bounds the hand-off queue between the decode stage and the
// compare-and-persist stage.
const decodeDepth = 8

type Config struct {
	SimilarityThreshold float64
	SampleInterval      float64
	CropThreshold       uint8
	CropMargins         entity.Margins
}

type Result struct {
	Candidates int
	Kept       int
}

// Sink receives each kept frame, already cropped, and assigns it the next
// contiguous output index.
type Sink interface {
	Append(img image.Image) (int, error)
}

type Pipeline struct {
	cfg    Config
	cmp    imaging.Comparator
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.CropThreshold == 0 {
		cfg.CropThreshold = imaging.DefaultCropThreshold
	}
	return &Pipeline{
		cfg:    cfg,
		cmp:    imaging.NewComparator(cfg.SimilarityThreshold),
		logger: logger,
	}
}

// SkipInterval converts a sampling interval in seconds to a frame stride.
// A zero or negative interval means every frame is a candidate.
func SkipInterval(frameRate, sampleInterval float64) int {
	if sampleInterval <= 0 || frameRate <= 0 {
		return 1
	}
	skip := int(math.Round(frameRate * sampleInterval))
	if skip < 1 {
		skip = 1
	}
	return skip
}

// Run drives the source to exhaustion in one forward pass. Decoding runs in
// its own stage feeding a bounded queue; the duplicate decision consumes it
// strictly in order, so emission order always matches source order. The
// decision compares raw candidate against raw previous kept frame; cropping
// applies only to the copy that is persisted.
func (p *Pipeline) Run(ctx context.Context, src port.FrameSource, sink Sink) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	skip := SkipInterval(src.FrameRate(), p.cfg.SampleInterval)

	frames := make(chan port.Frame, decodeDepth)
	decodeErr := make(chan error, 1)

	go func() {
		defer close(frames)
		start := -1
		for {
			f, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				decodeErr <- err
				return
			}
			if start < 0 {
				start = f.Index
			}
			if (f.Index-start)%skip != 0 {
				continue
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	var res Result
	var prev image.Image

	for f := range frames {
		res.Candidates++
		if res.Candidates%100 == 0 {
			p.logger.Info("dedup progress",
				zap.Int("candidates", res.Candidates),
				zap.Int("kept", res.Kept),
			)
		}

		if prev != nil && p.cmp.Duplicate(prev, f.Image) {
			continue
		}

		out := imaging.CropBorders(f.Image, p.cfg.CropThreshold)
		out, err := imaging.CropMargins(out, p.cfg.CropMargins)
		if err != nil {
			return res, err
		}

		idx, err := sink.Append(out)
		if err != nil {
			return res, fmt.Errorf("persist frame %d: %w", f.Index, err)
		}
		res.Kept++
		prev = f.Image

		p.logger.Debug("frame kept",
			zap.Int("source_index", f.Index),
			zap.Int("output_index", idx),
		)
	}

	select {
	case err := <-decodeErr:
		return res, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	p.logger.Info("dedup pass complete",
		zap.Int("candidates", res.Candidates),
		zap.Int("kept", res.Kept),
		zap.Int("skip", skip),
	)
	return res, nil
}
