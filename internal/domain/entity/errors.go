package entity

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is reported when a document is requested over zero frames.
// No document is written.
var ErrEmptyInput = errors.New("no frames to lay out")

// AcquisitionError means the source video is missing or cannot be opened at
// all. Fatal: no output is produced.
type AcquisitionError struct {
	Source string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire video %q: %v", e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// DecodeError means a single frame failed to decode mid-stream. Fatal for
// the pass; there is no skip-and-continue.
type DecodeError struct {
	FrameIndex int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %d: %v", e.FrameIndex, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidBreakError rejects a manual page break outside [0, N-1). Breaks are
// validated before any layout work begins, never clamped.
type InvalidBreakError struct {
	Break      int
	FrameCount int
}

func (e *InvalidBreakError) Error() string {
	return fmt.Sprintf("page break %d out of range for %d frames (must satisfy 0 <= b < %d)",
		e.Break, e.FrameCount, e.FrameCount-1)
}
