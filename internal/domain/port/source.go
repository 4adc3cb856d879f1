package port

import (
	"context"
	"image"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
)

// Frame is one decoded video frame. Index is its position in original video
// time and increases monotonically across a source.
type Frame struct {
	Index int
	Image image.Image
}

// FrameSource yields decoded frames in order within the window it was opened
// on. Next returns io.EOF once the source is exhausted. A frame that exists
// but cannot be decoded surfaces as *entity.DecodeError.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	FrameRate() float64
	Duration() float64
	Close() error
}

// FrameOpener opens a video file positioned at the requested time window.
// The first frame yielded is at or after the window's start index. An
// unopenable video surfaces as *entity.AcquisitionError.
type FrameOpener interface {
	Open(ctx context.Context, videoPath string, window entity.TimeWindow, sampleInterval float64) (FrameSource, error)
}
