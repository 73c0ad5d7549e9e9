// Package images - Frame definition for the detection pipeline.
package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned by stages that receive a nil or empty Mat.
var ErrEmptyFrame = errors.New("frame is empty")

// Encoding declares the channel layout of a frame.
type Encoding int

const (
	// EncodingBGR is the 8-bit BGR layout produced by capture devices.
	EncodingBGR Encoding = iota
	// EncodingHSV is OpenCV's 8-bit HSV layout (H 0-179, S and V 0-255).
	EncodingHSV
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingBGR:
		return "bgr"
	case EncodingHSV:
		return "hsv"
	default:
		return "unknown"
	}
}

// Frame is a pixel buffer with its declared encoding.
//
// The Mat is owned by whoever created the Frame; stages never close an input
// frame.
type Frame struct {
	Mat      gocv.Mat
	Encoding Encoding
}

// Width returns the frame width in pixels.
func (f Frame) Width() int { return f.Mat.Cols() }

// Height returns the frame height in pixels.
func (f Frame) Height() int { return f.Mat.Rows() }

// Resolution returns the frame dimensions.
func (f Frame) Resolution() Resolution {
	return Resolution{Width: f.Width(), Height: f.Height()}
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool { return f.Mat.Empty() }
