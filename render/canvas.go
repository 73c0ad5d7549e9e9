// Package render draws detection results: the virtual screen canvas, HighGUI
// windows, HSV tuning trackbars, hit snapshots and log output.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/mapping"
)

// Marker radius presets.
const (
	DefaultMarkerRadius = 30
	SmallMarkerRadius   = 10
)

var (
	background  = gocv.NewScalar(255, 255, 255, 0)
	markerColor = color.RGBA{0, 0, 0, 0}
)

// Canvas is the virtual screen: a uniform white image with at most one
// filled marker. It is cleared and reused every cycle instead of being
// reallocated; the drawn result is identical to drawing on a fresh canvas.
type Canvas struct {
	mat    gocv.Mat
	size   images.Resolution
	radius int
}

// NewCanvas allocates a white canvas of the given size.
func NewCanvas(size images.Resolution, radius int) *Canvas {
	return &Canvas{
		mat:    gocv.NewMatWithSizeFromScalar(background, size.Height, size.Width, gocv.MatTypeCV8UC3),
		size:   size,
		radius: radius,
	}
}

// Size returns the canvas resolution.
func (c *Canvas) Size() images.Resolution {
	return c.size
}

// Clear resets every pixel to the background color.
func (c *Canvas) Clear() {
	c.mat.SetTo(background)
}

// Draw clears the canvas and draws one filled marker at p.
//
// Returns:
//   - gocv.Mat: The canvas image. It stays owned by the canvas and is
//     overwritten by the next Draw.
func (c *Canvas) Draw(p mapping.VirtualPoint) gocv.Mat {
	c.Clear()
	drawMarker(&c.mat, p, c.radius)
	return c.mat
}

// Mat returns the current canvas image without redrawing.
func (c *Canvas) Mat() gocv.Mat {
	return c.mat
}

// Close releases the canvas image.
func (c *Canvas) Close() error {
	return c.mat.Close()
}

// DrawFresh renders p on a newly allocated canvas. The caller owns the
// returned Mat.
func DrawFresh(size images.Resolution, p mapping.VirtualPoint, radius int) gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(background, size.Height, size.Width, gocv.MatTypeCV8UC3)
	drawMarker(&mat, p, radius)
	return mat
}

func drawMarker(mat *gocv.Mat, p mapping.VirtualPoint, radius int) {
	gocv.Circle(mat, image.Pt(p.X, p.Y), radius, markerColor, -1)
}
