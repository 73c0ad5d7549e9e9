package images

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorRange_Validate(t *testing.T) {
	assert.NoError(t, DefaultColorRange().Validate())

	reversed := DefaultColorRange()
	reversed.Lower.S = 200
	reversed.Upper.S = 100
	assert.Error(t, reversed.Validate())

	outside := DefaultColorRange()
	outside.Upper.V = 256
	assert.Error(t, outside.Validate())

	negative := DefaultColorRange()
	negative.Lower.H = -1
	assert.Error(t, negative.Validate())
}

func TestColorRange_ValidateHueLimit(t *testing.T) {
	rng := DefaultColorRange()
	rng.Upper.H = MaxHue
	assert.NoError(t, rng.Validate())

	// OpenCV hue stops at 179, so 180 and above can never match a pixel.
	rng.Upper.H = MaxHue + 1
	assert.Error(t, rng.Validate())

	rng.Lower.H, rng.Upper.H = 200, 255
	assert.Error(t, rng.Validate())
}

func TestColorRange_Contains(t *testing.T) {
	rng := DefaultColorRange()

	assert.True(t, rng.Contains(HSV{H: 30, S: 255, V: 255}))
	assert.True(t, rng.Contains(HSV{H: 25, S: 100, V: 100}), "lower bound is inclusive")
	assert.True(t, rng.Contains(HSV{H: 45, S: 255, V: 255}), "upper bound is inclusive")
	assert.False(t, rng.Contains(HSV{H: 46, S: 255, V: 255}))
	assert.False(t, rng.Contains(HSV{H: 30, S: 99, V: 255}))
}

func TestToHSV(t *testing.T) {
	testCases := []struct {
		name     string
		hex      string
		expected HSV
	}{
		{name: "red", hex: "#ff0000", expected: HSV{H: 0, S: 255, V: 255}},
		{name: "yellow", hex: "#ffff00", expected: HSV{H: 30, S: 255, V: 255}},
		{name: "green", hex: "#00ff00", expected: HSV{H: 60, S: 255, V: 255}},
		{name: "blue", hex: "#0000ff", expected: HSV{H: 120, S: 255, V: 255}},
		{name: "black", hex: "#000000", expected: HSV{H: 0, S: 0, V: 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := colorful.Hex(tc.hex)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ToHSV(c))
		})
	}
}

func TestToHSV_WrapsHue(t *testing.T) {
	// Hue 359.5 degrees halves to 179.75, which rounds onto 180 and wraps to 0.
	c := colorful.Hsv(359.5, 1, 1)
	assert.Equal(t, 0.0, ToHSV(c).H)
}

func TestRangeFromHex(t *testing.T) {
	rng, err := RangeFromHex("#ffff00", 40)
	require.NoError(t, err)

	assert.Equal(t, HSV{H: 20, S: 215, V: 215}, rng.Lower)
	assert.Equal(t, HSV{H: 40, S: 255, V: 255}, rng.Upper)
	assert.NoError(t, rng.Validate())
	assert.True(t, rng.Contains(HSV{H: 30, S: 255, V: 255}))
}

func TestRangeFromHex_ClampsToChannelLimits(t *testing.T) {
	rng, err := RangeFromHex("#ff0000", 100)
	require.NoError(t, err)

	assert.Equal(t, 0.0, rng.Lower.H)
	assert.Equal(t, 25.0, rng.Upper.H)
	assert.Equal(t, 255.0, rng.Upper.S)
	assert.NoError(t, rng.Validate())
}

func TestRangeFromHex_Errors(t *testing.T) {
	_, err := RangeFromHex("yellow", 10)
	assert.Error(t, err)

	_, err = RangeFromHex("#ffff00", -1)
	assert.Error(t, err)
}

func TestComputeMatChecksum(t *testing.T) {
	a := newBlackFrame(32, 32)
	defer a.Close()
	b := newBlackFrame(32, 32)
	defer b.Close()
	c := newBlackFrame(32, 16)
	defer c.Close()

	assert.Equal(t, ComputeMatChecksum(a), ComputeMatChecksum(b))
	assert.NotEqual(t, ComputeMatChecksum(a), ComputeMatChecksum(c), "dimensions are part of the checksum")

	b.SetUCharAt(0, 0, 1)
	assert.NotEqual(t, ComputeMatChecksum(a), ComputeMatChecksum(b))
}
