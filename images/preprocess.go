// Package images - Frame preprocessing for the hit detection pipeline.
//
// A raw capture frame is normalized before segmentation:
//
// ┌──────────────┐
// │  Raw Frame   │
// └──────┬───────┘
// ┌────────────────────────────────────┐
// │ Resize to working resolution       │
// └──────┬─────────────────────────────┘
// ┌────────────────────────────────────┐
// │ Gaussian blur (sensor noise)       │
// └──────┬─────────────────────────────┘
// ┌────────────────────────────────────┐
// │ Brightness/contrast (alpha, beta)  │
// └────────────────────────────────────┘
//
// Every step can be switched off independently.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// PreprocessConfig toggles and parameterizes the preprocessing steps.
type PreprocessConfig struct {
	// Resize scales the frame to Resolution with bilinear interpolation.
	Resize bool `json:"resize" yaml:"resize"`
	// Resolution is the working resolution.
	Resolution Resolution `json:"resolution" yaml:"resolution"`
	// Blur applies a Gaussian blur of BlurKernelSize x BlurKernelSize.
	Blur bool `json:"blur" yaml:"blur"`
	// BlurKernelSize must be odd and positive.
	BlurKernelSize int `json:"blur_kernel_size" yaml:"blur_kernel_size"`
	// Brightness applies out = saturate(Alpha*in + Beta) per channel.
	Brightness bool    `json:"brightness" yaml:"brightness"`
	Alpha      float64 `json:"alpha" yaml:"alpha"`
	Beta       float64 `json:"beta" yaml:"beta"`
}

// DefaultPreprocessConfig resizes to 640x480 and blurs with an 11x11 kernel.
// Brightness adjustment is configured (1.5 gain, +30 offset) but disabled.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Resize:         true,
		Resolution:     DefaultWorkingResolution,
		Blur:           true,
		BlurKernelSize: 11,
		Brightness:     false,
		Alpha:          1.5,
		Beta:           30,
	}
}

// Validate checks the parameters of every enabled step.
func (c PreprocessConfig) Validate() error {
	if c.Resize && !c.Resolution.Valid() {
		return errors.Errorf("invalid working resolution %s", c.Resolution)
	}
	if c.Blur && (c.BlurKernelSize <= 0 || c.BlurKernelSize%2 == 0) {
		return errors.Errorf("blur kernel size must be odd and positive, got %d", c.BlurKernelSize)
	}
	return nil
}

// Preprocessor normalizes raw frames to the working resolution.
type Preprocessor struct {
	config PreprocessConfig
}

// NewPreprocessor creates a preprocessor after validating its configuration.
//
// Arguments:
//   - config: The preprocessing steps to apply.
//
// Returns:
//   - *Preprocessor: The preprocessor.
//   - error: If an enabled step is misconfigured.
func NewPreprocessor(config PreprocessConfig) (*Preprocessor, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "preprocess config")
	}
	return &Preprocessor{config: config}, nil
}

// Config returns the preprocessing configuration.
func (p *Preprocessor) Config() PreprocessConfig {
	return p.config
}

// Process writes the preprocessed version of src into dst. src is left
// untouched.
//
// Arguments:
//   - src: The raw BGR frame.
//   - dst: Destination Mat, reallocated as needed.
//
// Returns:
//   - error: ErrEmptyFrame if src has no pixels, or the wrapped failure of
//     an OpenCV step.
func (p *Preprocessor) Process(src gocv.Mat, dst *gocv.Mat) error {
	if dst == nil {
		return errors.New("destination mat is nil")
	}
	if src.Empty() {
		return ErrEmptyFrame
	}

	if err := src.CopyTo(dst); err != nil {
		return errors.Wrap(err, "copy frame")
	}

	if p.config.Resize {
		size := image.Pt(p.config.Resolution.Width, p.config.Resolution.Height)
		if dst.Cols() != size.X || dst.Rows() != size.Y {
			resized := gocv.NewMat()
			defer resized.Close()
			if err := gocv.Resize(*dst, &resized, size, 0, 0, gocv.InterpolationLinear); err != nil {
				return errors.Wrap(err, "resize")
			}
			if err := resized.CopyTo(dst); err != nil {
				return errors.Wrap(err, "copy resized frame")
			}
		}
	}

	if p.config.Blur {
		blurred := gocv.NewMat()
		defer blurred.Close()
		k := p.config.BlurKernelSize
		if err := gocv.GaussianBlur(*dst, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault); err != nil {
			return errors.Wrap(err, "gaussian blur")
		}
		if err := blurred.CopyTo(dst); err != nil {
			return errors.Wrap(err, "copy blurred frame")
		}
	}

	if p.config.Brightness {
		adjusted := gocv.NewMat()
		defer adjusted.Close()
		// The 8-bit conversion saturates, clamping to [0, 255].
		if err := dst.ConvertToWithParams(&adjusted, dst.Type(), float32(p.config.Alpha), float32(p.config.Beta)); err != nil {
			return errors.Wrap(err, "brightness")
		}
		if err := adjusted.CopyTo(dst); err != nil {
			return errors.Wrap(err, "copy adjusted frame")
		}
	}

	return nil
}
