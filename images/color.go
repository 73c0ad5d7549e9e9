package images

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Channel limits of OpenCV's 8-bit HSV encoding.
const (
	MaxHue        = 179
	MaxSaturation = 255
	MaxValue      = 255
)

// HSV is a color in OpenCV's 8-bit HSV encoding.
type HSV struct {
	H float64 `json:"h" yaml:"h"`
	S float64 `json:"s" yaml:"s"`
	V float64 `json:"v" yaml:"v"`
}

// Scalar converts the color to a gocv.Scalar in H, S, V channel order.
func (c HSV) Scalar() gocv.Scalar {
	return gocv.NewScalar(c.H, c.S, c.V, 0)
}

// String formats the color as (h, s, v).
func (c HSV) String() string {
	return fmt.Sprintf("(%g, %g, %g)", c.H, c.S, c.V)
}

// ColorRange is an inclusive per-channel HSV bound.
//
// The segmenter does not validate ranges: a reversed bound on any channel
// simply matches no pixels.
type ColorRange struct {
	Lower HSV `json:"lower" yaml:"lower"`
	Upper HSV `json:"upper" yaml:"upper"`
}

// DefaultColorRange returns the yellow-green range used when no tuner is
// configured.
func DefaultColorRange() ColorRange {
	return ColorRange{
		Lower: HSV{H: 25, S: 100, V: 100},
		Upper: HSV{H: 45, S: 255, V: 255},
	}
}

// Contains reports whether c lies inside the range on every channel.
func (r ColorRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// Validate checks that every lower bound is at most its upper bound and that
// all bounds fit the channel limits (hue 0-179, saturation and value 0-255).
func (r ColorRange) Validate() error {
	channels := []struct {
		name         string
		lower, upper float64
		max          float64
	}{
		{"hue", r.Lower.H, r.Upper.H, MaxHue},
		{"saturation", r.Lower.S, r.Upper.S, MaxSaturation},
		{"value", r.Lower.V, r.Upper.V, MaxValue},
	}
	for _, ch := range channels {
		if ch.lower < 0 || ch.upper > ch.max {
			return errors.Errorf("%s bounds [%g, %g] outside [0, %g]", ch.name, ch.lower, ch.upper, ch.max)
		}
		if ch.lower > ch.upper {
			return errors.Errorf("%s lower bound %g exceeds upper bound %g", ch.name, ch.lower, ch.upper)
		}
	}
	return nil
}

// String formats the range as lower-upper.
func (r ColorRange) String() string {
	return r.Lower.String() + "-" + r.Upper.String()
}

// RangeFromHex builds a range around a target color given as "#RRGGBB".
//
// Hue is far more selective than saturation and value, so the hue band is a
// quarter of the tolerance while saturation and value use the full tolerance.
// Bounds are clamped to the encoding's channel limits.
//
// Arguments:
//   - hex: The target color, e.g. "#9BF44B".
//   - tolerance: Half-width of the saturation and value bands.
//
// Returns:
//   - ColorRange: The derived range.
//   - error: If hex cannot be parsed or tolerance is negative.
func RangeFromHex(hex string, tolerance int) (ColorRange, error) {
	if tolerance < 0 {
		return ColorRange{}, errors.Errorf("tolerance must be non-negative, got %d", tolerance)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return ColorRange{}, errors.Wrapf(err, "invalid target color %q", hex)
	}

	target := ToHSV(c)
	hTol := float64(tolerance / 4)
	tol := float64(tolerance)

	return ColorRange{
		Lower: HSV{
			H: clamp(target.H-hTol, 0, MaxHue),
			S: clamp(target.S-tol, 0, MaxSaturation),
			V: clamp(target.V-tol, 0, MaxValue),
		},
		Upper: HSV{
			H: clamp(target.H+hTol, 0, MaxHue),
			S: clamp(target.S+tol, 0, MaxSaturation),
			V: clamp(target.V+tol, 0, MaxValue),
		},
	}, nil
}

// ToHSV converts a color to OpenCV's 8-bit HSV encoding (hue halved to fit
// in a byte).
func ToHSV(c colorful.Color) HSV {
	h, s, v := c.Clamped().Hsv()
	return HSV{
		H: math.Mod(math.Round(h/2), MaxHue+1),
		S: math.Round(s * MaxSaturation),
		V: math.Round(v * MaxValue),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
