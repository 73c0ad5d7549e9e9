// Package images provides the frame-level stages of the hit detection pipeline:
// resolutions, preprocessing and HSV color segmentation.
package images

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ResolutionType represents a common name for a frame or screen resolution.
type ResolutionType string

// Named resolutions accepted wherever a resolution is configured.
const (
	ResolutionTypeQVGA     ResolutionType = "QVGA"
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeSVGA     ResolutionType = "SVGA"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
	ResolutionTypeQHD1440p ResolutionType = "QHD 1440p"
	ResolutionType4KUHD    ResolutionType = "4K UHD"
)

// Resolution is a width/height pair in pixels.
type Resolution struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Working and virtual screen defaults.
var (
	DefaultWorkingResolution = Resolution{Width: 640, Height: 480}
	DefaultVirtualResolution = Resolution{Width: 1920, Height: 1080}
)

var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeQVGA:     {Width: 320, Height: 240},
	ResolutionTypeVGA:      {Width: 640, Height: 480},
	ResolutionTypeSVGA:     {Width: 800, Height: 600},
	ResolutionTypeHD720p:   {Width: 1280, Height: 720},
	ResolutionTypeFHD1080p: {Width: 1920, Height: 1080},
	ResolutionTypeQHD1440p: {Width: 2560, Height: 1440},
	ResolutionType4KUHD:    {Width: 3840, Height: 2160},
}

// aliases maps short lowercase names to resolution types.
var aliases = map[string]ResolutionType{
	"qvga":  ResolutionTypeQVGA,
	"vga":   ResolutionTypeVGA,
	"svga":  ResolutionTypeSVGA,
	"720p":  ResolutionTypeHD720p,
	"1080p": ResolutionTypeFHD1080p,
	"1440p": ResolutionTypeQHD1440p,
	"4k":    ResolutionType4KUHD,
}

// GetResolutionByType retrieves a resolution by its type.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[t]
	return res, ok
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Area returns the pixel count.
func (r Resolution) Area() int {
	if !r.Valid() {
		return 0
	}
	return r.Width * r.Height
}

// String formats the resolution as WIDTHxHEIGHT.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution parses either a WIDTHxHEIGHT pair (e.g. "640x480") or a
// known alias (e.g. "vga", "1080p").
//
// Arguments:
//   - s: The resolution string.
//
// Returns:
//   - Resolution: The parsed resolution.
//   - error: If the string is neither a known alias nor a positive pair.
func ParseResolution(s string) (Resolution, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := aliases[s]; ok {
		return resolutions[t], nil
	}

	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Resolution{}, errors.Errorf("invalid resolution %q: expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, errors.Wrapf(err, "invalid resolution width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, errors.Wrapf(err, "invalid resolution height %q", h)
	}

	res := Resolution{Width: width, Height: height}
	if !res.Valid() {
		return Resolution{}, errors.Errorf("invalid resolution %q: dimensions must be positive", s)
	}
	return res, nil
}

// UnmarshalText lets resolutions be written as "640x480" in config files.
func (r *Resolution) UnmarshalText(text []byte) error {
	res, err := ParseResolution(string(text))
	if err != nil {
		return err
	}
	*r = res
	return nil
}

// MarshalText renders the resolution as WIDTHxHEIGHT.
func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
