package render

import (
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/mapping"
)

// Window titles.
const (
	HitWindowTitle     = "Virtual Hit Display"
	PreviewWindowTitle = "Webcam Feed"
	TuningWindowTitle  = "Adjust HSV"
)

// Keys that stop the loop.
const (
	keyQuit   = 'q'
	keyEscape = 27
)

// Window shows the virtual screen and the annotated preview in two HighGUI
// windows. It also acts as the stop signal: pressing 'q' or ESC in any
// window requests a stop.
type Window struct {
	canvas  *Canvas
	hits    *gocv.Window
	preview *gocv.Window
	stop    bool
}

// NewWindow opens both windows. The virtual screen window starts blank and
// is updated on every hit.
//
// Always call Close() to destroy the windows.
func NewWindow(virtual images.Resolution, radius int) *Window {
	return &Window{
		canvas:  NewCanvas(virtual, radius),
		hits:    gocv.NewWindow(HitWindowTitle),
		preview: gocv.NewWindow(PreviewWindowTitle),
	}
}

// Hit redraws the virtual screen with a marker at p.
func (w *Window) Hit(p mapping.VirtualPoint) error {
	w.hits.IMShow(w.canvas.Draw(p))
	return nil
}

// Preview shows the working frame and pumps the HighGUI event loop for 1ms.
func (w *Window) Preview(frame gocv.Mat) error {
	w.preview.IMShow(frame)
	switch key := w.preview.WaitKey(1); key {
	case keyQuit, keyEscape:
		w.stop = true
	}
	return nil
}

// StopRequested reports whether a quit key was pressed.
func (w *Window) StopRequested() bool {
	return w.stop
}

// Close destroys the windows and the canvas.
func (w *Window) Close() error {
	w.hits.Close()
	w.preview.Close()
	return w.canvas.Close()
}

// Trackbars is a tuning window with six sliders, one per HSV bound. It
// implements the loop's Tuner: the range is read from the sliders every
// cycle. A reversed range is passed through unchanged and simply matches
// nothing.
type Trackbars struct {
	window *gocv.Window

	lowerH, lowerS, lowerV *gocv.Trackbar
	upperH, upperS, upperV *gocv.Trackbar
}

// trackbarMax is the slider maximum for every channel.
const trackbarMax = 255

// NewTrackbars opens the tuning window with sliders set to initial.
func NewTrackbars(initial images.ColorRange) *Trackbars {
	w := gocv.NewWindow(TuningWindowTitle)
	t := &Trackbars{
		window: w,
		lowerH: w.CreateTrackbar("Lower H", trackbarMax),
		lowerS: w.CreateTrackbar("Lower S", trackbarMax),
		lowerV: w.CreateTrackbar("Lower V", trackbarMax),
		upperH: w.CreateTrackbar("Upper H", trackbarMax),
		upperS: w.CreateTrackbar("Upper S", trackbarMax),
		upperV: w.CreateTrackbar("Upper V", trackbarMax),
	}
	t.lowerH.SetPos(int(initial.Lower.H))
	t.lowerS.SetPos(int(initial.Lower.S))
	t.lowerV.SetPos(int(initial.Lower.V))
	t.upperH.SetPos(int(initial.Upper.H))
	t.upperS.SetPos(int(initial.Upper.S))
	t.upperV.SetPos(int(initial.Upper.V))
	return t
}

// ColorRange returns the range currently selected on the sliders.
func (t *Trackbars) ColorRange() images.ColorRange {
	return images.ColorRange{
		Lower: images.HSV{
			H: float64(t.lowerH.GetPos()),
			S: float64(t.lowerS.GetPos()),
			V: float64(t.lowerV.GetPos()),
		},
		Upper: images.HSV{
			H: float64(t.upperH.GetPos()),
			S: float64(t.upperS.GetPos()),
			V: float64(t.upperV.GetPos()),
		},
	}
}

// Close destroys the tuning window.
func (t *Trackbars) Close() error {
	return t.window.Close()
}
