// Package controller - The per-frame detection pipeline.
package controller

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/detector"
	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/mapping"
	"github.com/nvr-ai/go-hitmap/profiler"
)

// Overlay colors for the preview frame.
var (
	overlayBox    = color.RGBA{0, 255, 0, 0}
	overlayCenter = color.RGBA{255, 0, 0, 0}
)

// PipelineConfig holds every per-frame parameter. It is fixed at startup.
type PipelineConfig struct {
	Preprocess images.PreprocessConfig
	Segment    images.SegmentConfig
	// MinArea is the inclusive area threshold for a detection.
	MinArea float64
	// Retrieval selects outer-only or nested contours.
	Retrieval detector.RetrievalMode
	// Virtual is the virtual screen resolution.
	Virtual images.Resolution
	// Scale exaggerates mapped coordinates.
	Scale float64
}

// DefaultPipelineConfig returns the defaults for every stage.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Preprocess: images.DefaultPreprocessConfig(),
		Segment:    images.DefaultSegmentConfig(),
		MinArea:    detector.DefaultMinimumArea,
		Retrieval:  detector.RetrievalExternal,
		Virtual:    images.DefaultVirtualResolution,
		Scale:      mapping.DefaultScale,
	}
}

// Result is the outcome of one cycle.
type Result struct {
	// Found is false when no region qualified; Detection and Point are then
	// zero.
	Found     bool
	Detection detector.Detection
	Point     mapping.VirtualPoint
	// Regions is the number of candidate regions extracted from the mask.
	Regions int
	// Working is the resolution the detection is expressed in.
	Working images.Resolution
}

// Pipeline is the explicit context shared by the stages of a cycle. It holds
// configuration and the reusable structuring element, never frame data.
type Pipeline struct {
	config       PipelineConfig
	preprocessor *images.Preprocessor
	segmenter    *images.ColorSegmenter
	profiler     *profiler.CycleProfiler
}

// NewPipeline validates the configuration and builds the stages.
//
// Arguments:
//   - config: Per-frame parameters.
//   - prof: Optional stage profiler; nil disables timing.
//
// Returns:
//   - *Pipeline: The pipeline. Call Close() to release native resources.
//   - error: If any stage is misconfigured.
func NewPipeline(config PipelineConfig, prof *profiler.CycleProfiler) (*Pipeline, error) {
	if config.MinArea < 0 {
		return nil, errors.Errorf("minimum area must be non-negative, got %v", config.MinArea)
	}
	if _, err := detector.ParseRetrievalMode(string(config.Retrieval)); err != nil {
		return nil, err
	}
	// Validate the mapping parameters once; the frame side is checked per
	// cycle since resizing may be disabled.
	if _, err := mapping.NewMapper(images.DefaultWorkingResolution, config.Virtual, config.Scale); err != nil {
		return nil, errors.Wrap(err, "mapping config")
	}

	pre, err := images.NewPreprocessor(config.Preprocess)
	if err != nil {
		return nil, err
	}
	seg, err := images.NewColorSegmenter(config.Segment)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:       config,
		preprocessor: pre,
		segmenter:    seg,
		profiler:     prof,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() PipelineConfig {
	return p.config
}

// Process runs preprocess, segment, select and map on one raw frame.
//
// Arguments:
//   - raw: The frame from the source. It is not modified.
//   - rng: The color range for this cycle.
//   - working: Receives the preprocessed frame for previewing.
//
// Returns:
//   - Result: The detection, if any.
//   - error: If the frame is empty or a stage fails.
func (p *Pipeline) Process(raw gocv.Mat, rng images.ColorRange, working *gocv.Mat) (Result, error) {
	stop := p.profiler.StartOperation("preprocess")
	err := p.preprocessor.Process(raw, working)
	stop()
	if err != nil {
		return Result{}, errors.Wrap(err, "preprocess")
	}

	stop = p.profiler.StartOperation("segment")
	mask, err := p.segmenter.Segment(*working, rng)
	stop()
	if err != nil {
		return Result{}, errors.Wrap(err, "segment")
	}
	defer mask.Close()

	stop = p.profiler.StartOperation("select")
	regions := detector.ExtractRegions(mask, p.config.Retrieval)
	det, found := detector.Select(regions, p.config.MinArea)
	stop()

	res := Result{
		Regions: len(regions),
		Working: images.Resolution{Width: working.Cols(), Height: working.Rows()},
	}
	if !found {
		return res, nil
	}

	mapper, err := mapping.NewMapper(res.Working, p.config.Virtual, p.config.Scale)
	if err != nil {
		return Result{}, errors.Wrap(err, "map")
	}

	res.Found = true
	res.Detection = det
	res.Point = mapper.Map(float64(det.Center.X), float64(det.Center.Y))
	return res, nil
}

// Annotate draws the detection's bounding box and center on frame.
func Annotate(frame *gocv.Mat, det detector.Detection) {
	gocv.Rectangle(frame, det.Box, overlayBox, 2)
	gocv.Circle(frame, det.Center, 4, overlayCenter, -1)
	gocv.PutText(frame, det.String(), image.Pt(10, 20), gocv.FontHersheyPlain, 1.0, overlayBox, 1)
}

// Close releases the segmenter's native resources.
func (p *Pipeline) Close() error {
	return p.segmenter.Close()
}
