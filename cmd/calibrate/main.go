// Command calibrate shows the HSV mask for a live source next to six
// trackbars, so the color range can be tuned by eye. On quit it prints the
// chosen range as a YAML color_range block.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-hitmap/config"
	"github.com/nvr-ai/go-hitmap/controller"
	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/render"
	"github.com/nvr-ai/go-hitmap/source"
	"github.com/nvr-ai/go-hitmap/util"
)

const maskWindowTitle = "HSV Mask"

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

	rng, err := calibrate(cfg)
	if err != nil {
		logger.Error("calibration failed", "error", err)
		os.Exit(1)
	}

	out, err := yaml.Marshal(struct {
		ColorRange images.ColorRange `yaml:"color_range"`
	}{rng})
	if err != nil {
		logger.Error("encode color range", "error", err)
		os.Exit(1)
	}
	fmt.Print(string(out))
}

func calibrate(cfg *config.Config) (images.ColorRange, error) {
	initial, err := cfg.Range()
	if err != nil {
		return images.ColorRange{}, err
	}

	src, err := source.Open(cfg.Source, nil)
	if err != nil {
		return initial, err
	}
	if c, ok := src.(interface{ Close() error }); ok {
		defer c.Close()
	}

	pre, err := images.NewPreprocessor(cfg.Pipeline().Preprocess)
	if err != nil {
		return initial, err
	}
	seg, err := images.NewColorSegmenter(cfg.Pipeline().Segment)
	if err != nil {
		return initial, err
	}
	defer seg.Close()

	trackbars := render.NewTrackbars(initial)
	defer trackbars.Close()

	window := gocv.NewWindow(maskWindowTitle)
	defer window.Close()

	raw := gocv.NewMat()
	defer raw.Close()
	working := gocv.NewMat()
	defer working.Close()

	// After the last frame the final image stays on screen until quit.
	rng := initial
	ended := false
	for {
		if !ended {
			err := src.Read(&raw)
			switch {
			case errors.Is(err, controller.ErrEndOfStream):
				ended = true
			case err != nil:
				return rng, err
			}
		}
		if raw.Empty() {
			if ended {
				return rng, nil
			}
			continue
		}

		if err := pre.Process(raw, &working); err != nil {
			return rng, err
		}
		rng = trackbars.ColorRange()
		mask, err := seg.Segment(working, rng)
		if err != nil {
			return rng, err
		}
		window.IMShow(mask.Mat)
		mask.Close()

		switch window.WaitKey(1) {
		case 'q', 27:
			return rng, nil
		}
	}
}
