package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-hitmap/config"
	"github.com/nvr-ai/go-hitmap/controller"
	"github.com/nvr-ai/go-hitmap/profiler"
	"github.com/nvr-ai/go-hitmap/render"
	"github.com/nvr-ai/go-hitmap/source"
	"github.com/nvr-ai/go-hitmap/util"
)

func main() {
	flags := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	level, _ := cfg.Level()
	logger := util.NewLogger(level, cfg.NoColor)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("hit detection failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// closer is anything owning native resources.
type closer interface {
	Close() error
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var closers []closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("release resource", "error", err)
			}
		}
	}()

	rng, err := cfg.Range()
	if err != nil {
		return err
	}

	interval := cfg.ReportInterval
	if interval <= 0 {
		interval = -1
	}
	prof := profiler.NewCycleProfiler(profiler.ProfilingOptions{
		ReportInterval: interval,
		Logger:         logger,
	})

	pipeline, err := controller.NewPipeline(cfg.Pipeline(), prof)
	if err != nil {
		return err
	}
	closers = append(closers, pipeline)

	src, err := source.Open(cfg.Source, logger)
	if err != nil {
		return err
	}
	if c, ok := src.(closer); ok {
		closers = append(closers, c)
	}

	runner := &controller.Runner{
		Pipeline: pipeline,
		Source:   src,
		Tuner:    controller.StaticTuner{Range: rng},
		Profiler: prof,
		Logger:   logger,
	}

	var sinks render.Multi
	if cfg.ShowWindow {
		window := render.NewWindow(cfg.VirtualResolution, cfg.MarkerRadius)
		closers = append(closers, window)
		sinks = append(sinks, window)
		runner.Stop = window

		if cfg.Tuning {
			trackbars := render.NewTrackbars(rng)
			closers = append(closers, trackbars)
			runner.Tuner = trackbars
		}
	} else {
		sinks = append(sinks, render.Log{Logger: logger})
		if cfg.Tuning {
			logger.Warn("tuning needs show_window; using the configured color range")
		}
	}
	if cfg.Snapshots.Dir != "" {
		opts, err := cfg.SnapshotOptions(logger)
		if err != nil {
			return err
		}
		snapshots, err := render.NewSnapshots(opts)
		if err != nil {
			return err
		}
		closers = append(closers, snapshots)
		sinks = append(sinks, snapshots)
	}
	runner.Sink = sinks

	logger.Info("hit detection started",
		"source", cfg.Source,
		"working", cfg.WorkingResolution,
		"virtual", cfg.VirtualResolution,
		"range", rng,
		"min_area", cfg.MinArea,
		"scale", cfg.Scale,
		"retrieval", cfg.Retrieval,
		"window", cfg.ShowWindow,
		"tuning", cfg.Tuning,
		"snapshots", cfg.Snapshots.Dir,
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	report := prof.Snapshot()
	logger.Info("hit detection finished",
		"cycles", report.Cycles,
		"hits", report.Hits,
		"fps", fmt.Sprintf("%.1f", report.FPS),
	)
	return nil
}
