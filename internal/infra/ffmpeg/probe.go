// Package ffmpeg realizes the frame source on top of the ffmpeg/ffprobe
// binaries: the requested window of a video is staged to a directory of PNG
// files, then decoded sequentially.
package ffmpeg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/macaquedev/score-video-scraper/internal/domain/entity"
)

// VideoInfo is the subset of ffprobe output the pipeline needs.
type VideoInfo struct {
	FrameRate float64
	Duration  float64
	Width     int
	Height    int
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads stream metadata. An unreadable or videoless file is an
// acquisition failure.
func Probe(videoPath string) (*VideoInfo, error) {
	raw, err := ffmpeggo.Probe(videoPath)
	if err != nil {
		return nil, &entity.AcquisitionError{Source: videoPath, Err: err}
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &entity.AcquisitionError{Source: videoPath, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		fps := parseRate(s.AvgFrameRate)
		if fps == 0 {
			fps = parseRate(s.RFrameRate)
		}
		if fps == 0 {
			return nil, &entity.AcquisitionError{Source: videoPath, Err: fmt.Errorf("no usable frame rate in stream")}
		}
		duration, _ := strconv.ParseFloat(out.Format.Duration, 64)
		return &VideoInfo{
			FrameRate: fps,
			Duration:  duration,
			Width:     s.Width,
			Height:    s.Height,
		}, nil
	}
	return nil, &entity.AcquisitionError{Source: videoPath, Err: fmt.Errorf("no video stream found")}
}

// parseRate converts ffprobe's fractional rate notation ("30000/1001").
func parseRate(r string) float64 {
	if r == "" || r == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		v, _ := strconv.ParseFloat(r, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
