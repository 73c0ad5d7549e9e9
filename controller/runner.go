// Package controller - The cooperative acquire/process/render loop.
package controller

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/profiler"
)

// Runner drives the pipeline one cycle at a time on the calling goroutine.
//
// A cycle is: read a frame, run the pipeline, render, then poll for
// cancellation. Cancellation never interrupts a cycle; the current cycle
// finishes rendering before Run returns.
type Runner struct {
	Pipeline *Pipeline
	Source   FrameSource
	Sink     RenderSink
	// Tuner supplies the color range; nil uses the default range.
	Tuner Tuner
	// Stop is polled after each cycle; nil never stops.
	Stop StopSignal
	// Profiler is optional.
	Profiler *profiler.CycleProfiler
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Run loops until the source ends, the stop signal trips, ctx is cancelled or
// a frame cannot be acquired.
//
// Arguments:
//   - ctx: Checked once per cycle, after rendering.
//
// Returns:
//   - error: nil on end of stream or requested stop; the wrapped failure when
//     acquisition or a pipeline stage fails.
func (r *Runner) Run(ctx context.Context) error {
	if r.Pipeline == nil || r.Source == nil || r.Sink == nil {
		return errors.New("runner requires a pipeline, a source and a sink")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tuner := r.Tuner
	if tuner == nil {
		tuner = StaticTuner{Range: images.DefaultColorRange()}
	}

	raw := gocv.NewMat()
	defer raw.Close()

	for cycle := 0; ; cycle++ {
		if err := ctx.Err(); err != nil {
			logger.Info("detection loop cancelled", "cycles", cycle)
			return nil
		}

		stopTiming := r.Profiler.StartOperation("acquire")
		err := r.Source.Read(&raw)
		stopTiming()
		if errors.Is(err, ErrEndOfStream) {
			logger.Info("end of stream", "cycles", cycle)
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "acquire frame %d", cycle)
		}

		if raw.Empty() {
			logger.Debug("skipping empty frame", "cycle", cycle)
		} else if err := r.cycle(raw, tuner, logger); err != nil {
			return errors.Wrapf(err, "cycle %d", cycle)
		}

		r.Profiler.MaybeReport()

		if r.Stop != nil && r.Stop.StopRequested() {
			logger.Info("stop requested", "cycles", cycle+1)
			return nil
		}
	}
}

// cycle processes and renders one non-empty frame.
func (r *Runner) cycle(raw gocv.Mat, tuner Tuner, logger *slog.Logger) error {
	stopCycle := r.Profiler.StartOperation("cycle")
	defer stopCycle()

	working := gocv.NewMat()
	defer working.Close()

	res, err := r.Pipeline.Process(raw, tuner.ColorRange(), &working)
	if err != nil {
		return err
	}
	r.Profiler.RecordCycle(res.Found)

	stopRender := r.Profiler.StartOperation("render")
	defer stopRender()

	if res.Found {
		logger.Debug("hit",
			"center_x", res.Detection.Center.X,
			"center_y", res.Detection.Center.Y,
			"area", res.Detection.Area,
			"virtual_x", res.Point.X,
			"virtual_y", res.Point.Y,
		)
		Annotate(&working, res.Detection)
		if err := r.Sink.Hit(res.Point); err != nil {
			return errors.Wrap(err, "render hit")
		}
	}
	if err := r.Sink.Preview(working); err != nil {
		return errors.Wrap(err, "render preview")
	}
	return nil
}
