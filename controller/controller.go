// Package controller - This file contains the interfaces the detection loop
// talks to: where frames come from, where results go, and who decides the
// color range and when to stop.
package controller

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/mapping"
)

// ErrEndOfStream is returned by a FrameSource when no frames remain. The loop
// ends without error when it sees it.
var ErrEndOfStream = errors.New("end of stream")

// FrameSource supplies one BGR frame per cycle.
type FrameSource interface {
	// Read fills dst with the next frame. It returns ErrEndOfStream when the
	// stream is exhausted; any other error is an acquisition failure.
	Read(dst *gocv.Mat) error
}

// Tuner supplies the active color range, queried once per cycle.
type Tuner interface {
	ColorRange() images.ColorRange
}

// StopSignal is polled once per cycle, after rendering.
type StopSignal interface {
	StopRequested() bool
}

// RenderSink consumes the output of a cycle.
type RenderSink interface {
	// Hit draws the marker for a detection on the virtual screen.
	Hit(p mapping.VirtualPoint) error
	// Preview shows the working frame, annotated when a detection exists.
	Preview(frame gocv.Mat) error
}

// StaticTuner always returns the same range.
type StaticTuner struct {
	Range images.ColorRange
}

// ColorRange returns the fixed range.
func (t StaticTuner) ColorRange() images.ColorRange {
	return t.Range
}

// StopFunc adapts a function to the StopSignal interface.
type StopFunc func() bool

// StopRequested calls f.
func (f StopFunc) StopRequested() bool {
	return f()
}
