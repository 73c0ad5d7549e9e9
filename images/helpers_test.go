package images

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// yellow is pure yellow; in OpenCV HSV it is (30, 255, 255).
var yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}

// newBlackFrame returns a black BGR frame.
func newBlackFrame(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
}

// newDiskFrame returns a black frame with a filled yellow disk.
func newDiskFrame(width, height int, center image.Point, radius int) gocv.Mat {
	frame := newBlackFrame(width, height)
	gocv.Circle(&frame, center, radius, yellow, -1)
	return frame
}
