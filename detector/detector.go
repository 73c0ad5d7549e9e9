// Package detector extracts candidate regions from a binary mask and selects
// the single detection for a cycle.
package detector

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/images"
)

// DefaultMinimumArea is the smallest region area accepted as a detection.
const DefaultMinimumArea = 500.0

// RetrievalMode selects which contours ExtractRegions returns.
type RetrievalMode string

const (
	// RetrievalExternal returns only outer boundaries. A hole inside the
	// object (e.g. a specular highlight) never becomes its own candidate.
	RetrievalExternal RetrievalMode = "external"
	// RetrievalTree returns every boundary including nested ones.
	RetrievalTree RetrievalMode = "tree"
)

// ParseRetrievalMode parses "external" or "tree". An empty string selects
// RetrievalExternal.
func ParseRetrievalMode(s string) (RetrievalMode, error) {
	switch RetrievalMode(s) {
	case "", RetrievalExternal:
		return RetrievalExternal, nil
	case RetrievalTree:
		return RetrievalTree, nil
	default:
		return "", errors.Errorf("unknown contour retrieval mode %q", s)
	}
}

func (m RetrievalMode) gocv() gocv.RetrievalMode {
	if m == RetrievalTree {
		return gocv.RetrievalTree
	}
	return gocv.RetrievalExternal
}

// Region is the closed boundary of a connected component in a mask.
type Region struct {
	// Points is the boundary polyline.
	Points []image.Point
	// Area is the polygon area enclosed by Points.
	Area float64
	// Box is the axis-aligned bounding box of Points.
	Box image.Rectangle
}

// NewRegion builds a region from a boundary polyline, computing its polygon
// area and bounding box.
func NewRegion(points []image.Point) Region {
	pv := gocv.NewPointVectorFromPoints(points)
	defer pv.Close()

	return Region{
		Points: points,
		Area:   gocv.ContourArea(pv),
		Box:    gocv.BoundingRect(pv),
	}
}

// Detection is the selected region reduced to its position.
type Detection struct {
	// Center is the bounding box center, used as the centroid proxy.
	Center image.Point
	// Area is the selected region's polygon area.
	Area float64
	// Box is the selected region's bounding box.
	Box image.Rectangle
}

// String formats the detection for logs.
func (d Detection) String() string {
	return fmt.Sprintf("center=(%d,%d) area=%.0f box=%v", d.Center.X, d.Center.Y, d.Area, d.Box)
}

// Center returns the center of a bounding box using integer division, so a
// box at x=10 with width 5 is centered at 12.
func Center(box image.Rectangle) image.Point {
	return image.Pt(box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2)
}

// ExtractRegions finds the boundaries of the connected components in mask.
//
// Arguments:
//   - mask: The binary mask produced by the segmenter.
//   - mode: Which boundaries to return; RetrievalExternal skips holes.
//
// Returns:
//   - []Region: Regions in the stable order OpenCV enumerates them.
func ExtractRegions(mask images.Mask, mode RetrievalMode) []Region {
	if mask.Mat.Empty() {
		return nil
	}

	contours := gocv.FindContours(mask.Mat, mode.gocv(), gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		regions = append(regions, NewRegion(contours.At(i).ToPoints()))
	}
	return regions
}

// Largest returns the index of the region with the greatest area. The first
// region wins ties. It returns -1 for an empty slice.
func Largest(regions []Region) int {
	best := -1
	for i, r := range regions {
		if best < 0 || r.Area > regions[best].Area {
			best = i
		}
	}
	return best
}

// Select picks the largest region and accepts it when its area is at least
// minArea. The threshold is inclusive: a region of exactly minArea is a
// detection, minArea-1 is not.
//
// Arguments:
//   - regions: Candidate regions for this cycle.
//   - minArea: Minimum accepted area.
//
// Returns:
//   - Detection: The selected detection.
//   - bool: false when there is no qualifying region.
func Select(regions []Region, minArea float64) (Detection, bool) {
	i := Largest(regions)
	if i < 0 {
		return Detection{}, false
	}

	best := regions[i]
	if best.Area < minArea {
		return Detection{}, false
	}

	return Detection{
		Center: Center(best.Box),
		Area:   best.Area,
		Box:    best.Box,
	}, true
}
