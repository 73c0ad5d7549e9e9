// Package mapping rescales detections from frame space onto the virtual screen.
package mapping

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-hitmap/images"
)

// DefaultScale leaves mapped coordinates unexaggerated.
const DefaultScale = 1.0

// VirtualPoint is a position on the virtual screen. It always lies within
// [0, width] x [0, height] of the screen it was mapped onto.
type VirtualPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the point as (x, y).
func (p VirtualPoint) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Map linearly rescales (x, y) from a frameW x frameH frame onto a
// virtW x virtH screen, multiplies by the exaggeration factor s, rounds half
// away from zero and clamps into the screen.
//
// Clamping is unconditional, so the result is in range for any input,
// including non-finite ones (NaN maps to 0).
//
// Arguments:
//   - x, y: Position in frame space.
//   - frameW, frameH: Working resolution.
//   - virtW, virtH: Virtual screen resolution.
//   - s: Exaggeration factor, 1.0 for a plain rescale.
//
// Returns:
//   - VirtualPoint: The clamped screen position.
func Map(x, y float64, frameW, frameH, virtW, virtH int, s float64) VirtualPoint {
	scaleX := float64(virtW) / float64(frameW)
	scaleY := float64(virtH) / float64(frameH)

	return VirtualPoint{
		X: clampRound(x*scaleX*s, virtW),
		Y: clampRound(y*scaleY*s, virtH),
	}
}

// clampRound rounds v and clamps it to [0, hi].
func clampRound(v float64, hi int) int {
	if hi < 0 {
		hi = 0
	}
	switch {
	case math.IsNaN(v):
		return 0
	case v <= 0:
		return 0
	case v >= float64(hi):
		return hi
	}
	return int(math.Round(v))
}

// Mapper binds a working resolution, a virtual resolution and a scale factor.
type Mapper struct {
	Frame   images.Resolution
	Virtual images.Resolution
	Scale   float64
}

// NewMapper validates the resolutions and the scale.
//
// Arguments:
//   - frame: The working resolution detections are expressed in.
//   - virtual: The virtual screen resolution.
//   - scale: Exaggeration factor; must be positive and finite.
//
// Returns:
//   - Mapper: The configured mapper.
//   - error: If a resolution is not positive or the scale is invalid.
func NewMapper(frame, virtual images.Resolution, scale float64) (Mapper, error) {
	if !frame.Valid() {
		return Mapper{}, errors.Errorf("invalid frame resolution %s", frame)
	}
	if !virtual.Valid() {
		return Mapper{}, errors.Errorf("invalid virtual resolution %s", virtual)
	}
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return Mapper{}, errors.Errorf("scale must be positive and finite, got %v", scale)
	}
	return Mapper{Frame: frame, Virtual: virtual, Scale: scale}, nil
}

// Map rescales a frame-space position onto the virtual screen.
func (m Mapper) Map(x, y float64) VirtualPoint {
	return Map(x, y, m.Frame.Width, m.Frame.Height, m.Virtual.Width, m.Virtual.Height, m.Scale)
}
