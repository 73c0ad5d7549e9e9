// Package images - HSV color segmentation using OpenCV (via gocv).
//
// The ColorSegmenter turns a preprocessed BGR frame into a binary mask of the
// pixels whose color falls inside a ColorRange:
//
// ┌──────────────┐
// │ BGR Frame    │
// └──────┬───────┘
// ┌────────────────────────────┐
// │ Convert to HSV             │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ InRange (inclusive bounds) │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Erode x N, then Dilate x N │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Binary Mask                │
// └────────────────────────────┘
//
// Usage:
//
//	seg := images.NewColorSegmenter(images.DefaultSegmentConfig())
//	defer seg.Close()
//
//	mask, err := seg.Segment(frame, images.DefaultColorRange())
//	if err != nil {
//	    return err
//	}
//	defer mask.Close()
//
// The segmenter keeps only its structuring element between calls; every mask
// is freshly allocated and owned by the caller.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SegmentConfig controls the morphological cleanup of the mask.
type SegmentConfig struct {
	// ErodeIterations removes speckles smaller than the structuring element.
	ErodeIterations int `json:"erode_iterations" yaml:"erode_iterations"`
	// DilateIterations restores the size of the shapes that survived erosion.
	DilateIterations int `json:"dilate_iterations" yaml:"dilate_iterations"`
	// KernelSize is the side of the rectangular structuring element.
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`
}

// DefaultSegmentConfig erodes and dilates twice with a 3x3 element.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		ErodeIterations:  2,
		DilateIterations: 2,
		KernelSize:       3,
	}
}

// Validate rejects negative iteration counts and empty kernels.
func (c SegmentConfig) Validate() error {
	if c.ErodeIterations < 0 || c.DilateIterations < 0 {
		return errors.Errorf("morphology iterations must be non-negative, got erode=%d dilate=%d",
			c.ErodeIterations, c.DilateIterations)
	}
	if c.KernelSize <= 0 {
		return errors.Errorf("morphology kernel size must be positive, got %d", c.KernelSize)
	}
	return nil
}

// Mask is a binary 8-bit single channel image: 255 where the source pixel
// matched the color range and 0 elsewhere.
type Mask struct {
	Mat gocv.Mat
}

// Width returns the mask width in pixels.
func (m Mask) Width() int { return m.Mat.Cols() }

// Height returns the mask height in pixels.
func (m Mask) Height() int { return m.Mat.Rows() }

// Count returns the number of set pixels.
func (m Mask) Count() int {
	if m.Mat.Empty() {
		return 0
	}
	return gocv.CountNonZero(m.Mat)
}

// Close releases the underlying Mat.
func (m Mask) Close() error {
	return m.Mat.Close()
}

// ColorSegmenter thresholds frames in HSV space and denoises the result with a
// morphological opening.
type ColorSegmenter struct {
	config SegmentConfig
	kernel gocv.Mat
}

// NewColorSegmenter creates a segmenter with a rectangular structuring element
// of config.KernelSize.
//
// Always call Close() to release the kernel.
func NewColorSegmenter(config SegmentConfig) (*ColorSegmenter, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "segment config")
	}
	return &ColorSegmenter{
		config: config,
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(config.KernelSize, config.KernelSize)),
	}, nil
}

// Config returns the segmentation configuration.
func (s *ColorSegmenter) Config() SegmentConfig {
	return s.config
}

// ToHSV converts a BGR frame into the HSV encoding.
//
// Arguments:
//   - frame: An 8-bit, 3-channel BGR frame.
//
// Returns:
//   - Frame: A new frame in EncodingHSV, owned by the caller.
//   - error: If the frame is empty or not 3-channel.
func (s *ColorSegmenter) ToHSV(frame gocv.Mat) (Frame, error) {
	if frame.Empty() {
		return Frame{}, ErrEmptyFrame
	}
	if frame.Channels() != 3 {
		return Frame{}, errors.Errorf("expected 3-channel BGR frame, got %d channels", frame.Channels())
	}

	hsv := gocv.NewMat()
	if err := gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV); err != nil {
		hsv.Close()
		return Frame{}, errors.Wrap(err, "convert to hsv")
	}
	return Frame{Mat: hsv, Encoding: EncodingHSV}, nil
}

// Threshold marks every pixel of an HSV frame whose three channels lie within
// rng, bounds inclusive. A reversed range yields an empty mask.
func (s *ColorSegmenter) Threshold(hsv Frame, rng ColorRange) (Mask, error) {
	if hsv.Empty() {
		return Mask{}, ErrEmptyFrame
	}
	if hsv.Encoding != EncodingHSV {
		return Mask{}, errors.Errorf("threshold expects an hsv frame, got %s", hsv.Encoding)
	}

	mask := gocv.NewMat()
	if err := gocv.InRangeWithScalar(hsv.Mat, rng.Lower.Scalar(), rng.Upper.Scalar(), &mask); err != nil {
		mask.Close()
		return Mask{}, errors.Wrap(err, "threshold")
	}
	return Mask{Mat: mask}, nil
}

// Open erodes then dilates the mask in place. Speckles smaller than the
// structuring element disappear while larger shapes keep roughly their size.
func (s *ColorSegmenter) Open(mask Mask) error {
	for i := 0; i < s.config.ErodeIterations; i++ {
		if err := gocv.Erode(mask.Mat, &mask.Mat, s.kernel); err != nil {
			return errors.Wrap(err, "erode")
		}
	}
	for i := 0; i < s.config.DilateIterations; i++ {
		if err := gocv.Dilate(mask.Mat, &mask.Mat, s.kernel); err != nil {
			return errors.Wrap(err, "dilate")
		}
	}
	return nil
}

// Segment runs the full segmentation: HSV conversion, range threshold and
// opening. The returned mask has the same dimensions as frame and must be
// closed by the caller.
//
// Arguments:
//   - frame: The preprocessed BGR frame.
//   - rng: The active color range.
//
// Returns:
//   - Mask: The cleaned binary mask.
//   - error: If the frame is empty or a morphology step fails.
func (s *ColorSegmenter) Segment(frame gocv.Mat, rng ColorRange) (Mask, error) {
	hsv, err := s.ToHSV(frame)
	if err != nil {
		return Mask{}, err
	}
	defer hsv.Mat.Close()

	mask, err := s.Threshold(hsv, rng)
	if err != nil {
		return Mask{}, err
	}
	if err := s.Open(mask); err != nil {
		mask.Close()
		return Mask{}, err
	}
	return mask, nil
}

// Close releases the structuring element.
func (s *ColorSegmenter) Close() error {
	return s.kernel.Close()
}
