// Package controller - Tests for the detection pipeline and the cooperative loop
package controller

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/mapping"
	"github.com/nvr-ai/go-hitmap/profiler"
)

var yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}

// newDiskFrame returns a black 640x480 BGR frame with a yellow disk.
func newDiskFrame(center image.Point, radius int) gocv.Mat {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	gocv.Circle(&frame, center, radius, yellow, -1)
	return frame
}

func newBlackFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
}

// MockSource replays frames, then ends the stream or fails with err.
type MockSource struct {
	frames []gocv.Mat
	err    error
	// repeat keeps returning the last frame instead of ending.
	repeat bool
	reads  int
}

func (m *MockSource) Read(dst *gocv.Mat) error {
	m.reads++
	if len(m.frames) == 0 {
		if m.err != nil {
			return m.err
		}
		return ErrEndOfStream
	}

	i := m.reads - 1
	if i >= len(m.frames) {
		if !m.repeat {
			if m.err != nil {
				return m.err
			}
			return ErrEndOfStream
		}
		i = len(m.frames) - 1
	}
	m.frames[i].CopyTo(dst)
	return nil
}

func (m *MockSource) Close() {
	for _, f := range m.frames {
		f.Close()
	}
}

// MockSink records every render call.
type MockSink struct {
	hits     []mapping.VirtualPoint
	previews int
	sizes    []images.Resolution
	hitErr   error
}

func (m *MockSink) Hit(p mapping.VirtualPoint) error {
	m.hits = append(m.hits, p)
	return m.hitErr
}

func (m *MockSink) Preview(frame gocv.Mat) error {
	m.previews++
	m.sizes = append(m.sizes, images.Resolution{Width: frame.Cols(), Height: frame.Rows()})
	return nil
}

func newPipeline(t *testing.T, cfg PipelineConfig) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNewPipeline_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{name: "negative area", mutate: func(c *PipelineConfig) { c.MinArea = -1 }},
		{name: "unknown retrieval", mutate: func(c *PipelineConfig) { c.Retrieval = "list" }},
		{name: "zero scale", mutate: func(c *PipelineConfig) { c.Scale = 0 }},
		{name: "empty virtual screen", mutate: func(c *PipelineConfig) { c.Virtual = images.Resolution{} }},
		{name: "even blur kernel", mutate: func(c *PipelineConfig) { c.Preprocess.BlurKernelSize = 4 }},
		{name: "negative erosion", mutate: func(c *PipelineConfig) { c.Segment.ErodeIterations = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tc.mutate(&cfg)
			_, err := NewPipeline(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestPipeline_Process(t *testing.T) {
	testCases := []struct {
		name     string
		scale    float64
		expected mapping.VirtualPoint
	}{
		{name: "plain rescale", scale: 1.0, expected: mapping.VirtualPoint{X: 960, Y: 540}},
		{name: "exaggerated", scale: 1.5, expected: mapping.VirtualPoint{X: 1440, Y: 810}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			cfg.Scale = tc.scale
			p := newPipeline(t, cfg)

			raw := newDiskFrame(image.Pt(320, 240), 50)
			defer raw.Close()
			working := gocv.NewMat()
			defer working.Close()

			res, err := p.Process(raw, images.DefaultColorRange(), &working)
			require.NoError(t, err)
			require.True(t, res.Found)
			assert.Equal(t, image.Pt(320, 240), res.Detection.Center)
			assert.Equal(t, tc.expected, res.Point)
			assert.Equal(t, 1, res.Regions)
			assert.Equal(t, images.DefaultWorkingResolution, res.Working)
		})
	}
}

func TestPipeline_ProcessScalesLargerFrames(t *testing.T) {
	p := newPipeline(t, DefaultPipelineConfig())

	raw := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 960, 1280, gocv.MatTypeCV8UC3)
	defer raw.Close()
	gocv.Circle(&raw, image.Pt(640, 480), 100, yellow, -1)
	working := gocv.NewMat()
	defer working.Close()

	res, err := p.Process(raw, images.DefaultColorRange(), &working)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, images.DefaultWorkingResolution, res.Working)
	assert.InDelta(t, 960, res.Point.X, 3)
	assert.InDelta(t, 540, res.Point.Y, 3)
}

func TestPipeline_ProcessWithoutResize(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.Preprocess.Resize = false
	p := newPipeline(t, cfg)

	raw := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
	defer raw.Close()
	gocv.Circle(&raw, image.Pt(160, 120), 30, yellow, -1)
	working := gocv.NewMat()
	defer working.Close()

	res, err := p.Process(raw, images.DefaultColorRange(), &working)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, images.Resolution{Width: 320, Height: 240}, res.Working)
	assert.Equal(t, image.Pt(160, 120), res.Detection.Center)
	assert.Equal(t, mapping.VirtualPoint{X: 960, Y: 540}, res.Point)
}

func TestPipeline_ProcessNoDetection(t *testing.T) {
	p := newPipeline(t, DefaultPipelineConfig())

	raw := newBlackFrame()
	defer raw.Close()
	working := gocv.NewMat()
	defer working.Close()

	res, err := p.Process(raw, images.DefaultColorRange(), &working)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Zero(t, res.Regions)
	assert.Equal(t, mapping.VirtualPoint{}, res.Point)
}

func TestPipeline_ProcessSmallRegionRejected(t *testing.T) {
	p := newPipeline(t, DefaultPipelineConfig())

	// Radius 10 gives roughly 314 pixels, below the default minimum area.
	raw := newDiskFrame(image.Pt(100, 100), 10)
	defer raw.Close()
	working := gocv.NewMat()
	defer working.Close()

	res, err := p.Process(raw, images.DefaultColorRange(), &working)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, 1, res.Regions)
}

func TestPipeline_ProcessReversedRange(t *testing.T) {
	p := newPipeline(t, DefaultPipelineConfig())

	raw := newDiskFrame(image.Pt(320, 240), 50)
	defer raw.Close()
	working := gocv.NewMat()
	defer working.Close()

	reversed := images.DefaultColorRange()
	reversed.Lower, reversed.Upper = reversed.Upper, reversed.Lower

	res, err := p.Process(raw, reversed, &working)
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestPipeline_ProcessEmptyFrame(t *testing.T) {
	p := newPipeline(t, DefaultPipelineConfig())

	raw := gocv.NewMat()
	defer raw.Close()
	working := gocv.NewMat()
	defer working.Close()

	_, err := p.Process(raw, images.DefaultColorRange(), &working)
	assert.ErrorIs(t, err, images.ErrEmptyFrame)
}

func TestAnnotate(t *testing.T) {
	p := newPipeline(t, DefaultPipelineConfig())

	raw := newDiskFrame(image.Pt(320, 240), 50)
	defer raw.Close()
	working := gocv.NewMat()
	defer working.Close()

	res, err := p.Process(raw, images.DefaultColorRange(), &working)
	require.NoError(t, err)
	require.True(t, res.Found)

	before := images.ComputeMatChecksum(working)
	Annotate(&working, res.Detection)
	assert.NotEqual(t, before, images.ComputeMatChecksum(working))
	assert.Equal(t, images.DefaultWorkingResolution.Width, working.Cols())
}

func TestRunner_EndToEnd(t *testing.T) {
	src := &MockSource{frames: []gocv.Mat{newDiskFrame(image.Pt(320, 240), 50)}}
	defer src.Close()
	sink := &MockSink{}
	prof := profiler.NewCycleProfiler(profiler.ProfilingOptions{ReportInterval: -1})

	p, err := NewPipeline(DefaultPipelineConfig(), prof)
	require.NoError(t, err)
	defer p.Close()

	runner := &Runner{Pipeline: p, Source: src, Sink: sink, Profiler: prof}
	require.NoError(t, runner.Run(context.Background()))

	assert.Equal(t, []mapping.VirtualPoint{{X: 960, Y: 540}}, sink.hits)
	assert.Equal(t, 1, sink.previews)
	assert.Equal(t, []images.Resolution{images.DefaultWorkingResolution}, sink.sizes)
	assert.Equal(t, 2, src.reads, "one frame, then end of stream")

	report := prof.Snapshot()
	assert.Equal(t, int64(1), report.Cycles)
	assert.Equal(t, int64(1), report.Hits)
}

func TestRunner_PreviewWithoutDetection(t *testing.T) {
	src := &MockSource{frames: []gocv.Mat{newBlackFrame(), newBlackFrame(), newBlackFrame()}}
	defer src.Close()
	sink := &MockSink{}

	runner := &Runner{Pipeline: newPipeline(t, DefaultPipelineConfig()), Source: src, Sink: sink}
	require.NoError(t, runner.Run(context.Background()))

	assert.Empty(t, sink.hits)
	assert.Equal(t, 3, sink.previews)
}

func TestRunner_EndOfStreamImmediately(t *testing.T) {
	src := &MockSource{}
	sink := &MockSink{}

	runner := &Runner{Pipeline: newPipeline(t, DefaultPipelineConfig()), Source: src, Sink: sink}
	assert.NoError(t, runner.Run(context.Background()))
	assert.Zero(t, sink.previews)
}

func TestRunner_AcquisitionFailure(t *testing.T) {
	errCamera := errors.New("camera unplugged")
	src := &MockSource{frames: []gocv.Mat{newBlackFrame()}, err: errCamera}
	defer src.Close()
	sink := &MockSink{}

	runner := &Runner{Pipeline: newPipeline(t, DefaultPipelineConfig()), Source: src, Sink: sink}
	err := runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errCamera)
	assert.NotErrorIs(t, err, ErrEndOfStream)
	assert.Equal(t, 1, sink.previews, "frames before the failure are rendered")
}

func TestRunner_StopsAfterRendering(t *testing.T) {
	src := &MockSource{frames: []gocv.Mat{newDiskFrame(image.Pt(320, 240), 50)}, repeat: true}
	defer src.Close()
	sink := &MockSink{}

	polls := 0
	runner := &Runner{
		Pipeline: newPipeline(t, DefaultPipelineConfig()),
		Source:   src,
		Sink:     sink,
		Stop: StopFunc(func() bool {
			polls++
			return polls == 2
		}),
	}
	require.NoError(t, runner.Run(context.Background()))

	assert.Len(t, sink.hits, 2)
	assert.Equal(t, 2, sink.previews)
	assert.Equal(t, 2, src.reads)
}

func TestRunner_ContextCancelled(t *testing.T) {
	src := &MockSource{frames: []gocv.Mat{newBlackFrame()}, repeat: true}
	defer src.Close()
	sink := &MockSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &Runner{Pipeline: newPipeline(t, DefaultPipelineConfig()), Source: src, Sink: sink}
	require.NoError(t, runner.Run(ctx))
	assert.Zero(t, src.reads)
}

func TestRunner_SkipsEmptyFrames(t *testing.T) {
	src := &MockSource{frames: []gocv.Mat{gocv.NewMat(), newDiskFrame(image.Pt(320, 240), 50)}}
	defer src.Close()
	sink := &MockSink{}

	runner := &Runner{Pipeline: newPipeline(t, DefaultPipelineConfig()), Source: src, Sink: sink}
	require.NoError(t, runner.Run(context.Background()))

	assert.Len(t, sink.hits, 1)
	assert.Equal(t, 1, sink.previews)
}

func TestRunner_TunerRangeApplies(t *testing.T) {
	src := &MockSource{frames: []gocv.Mat{newDiskFrame(image.Pt(320, 240), 50)}}
	defer src.Close()
	sink := &MockSink{}

	// A blue range never matches the yellow disk.
	blue := images.ColorRange{
		Lower: images.HSV{H: 110, S: 100, V: 100},
		Upper: images.HSV{H: 130, S: 255, V: 255},
	}
	runner := &Runner{
		Pipeline: newPipeline(t, DefaultPipelineConfig()),
		Source:   src,
		Sink:     sink,
		Tuner:    StaticTuner{Range: blue},
	}
	require.NoError(t, runner.Run(context.Background()))

	assert.Empty(t, sink.hits)
	assert.Equal(t, 1, sink.previews)
}

func TestRunner_SinkFailure(t *testing.T) {
	src := &MockSource{frames: []gocv.Mat{newDiskFrame(image.Pt(320, 240), 50)}}
	defer src.Close()
	sink := &MockSink{hitErr: errors.New("display gone")}

	runner := &Runner{Pipeline: newPipeline(t, DefaultPipelineConfig()), Source: src, Sink: sink}
	assert.Error(t, runner.Run(context.Background()))
}

func TestRunner_RequiresComponents(t *testing.T) {
	runner := &Runner{}
	assert.Error(t, runner.Run(context.Background()))
}
