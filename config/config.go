// Package config loads runtime configuration for the hit detector.
//
// Values come from Default(), are overridden by an optional YAML file, and
// finally by command-line flags that were explicitly set.
package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-hitmap/controller"
	"github.com/nvr-ai/go-hitmap/detector"
	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/mapping"
	"github.com/nvr-ai/go-hitmap/render"
)

// ResizeConfig toggles scaling to the working resolution.
type ResizeConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// BlurConfig toggles the Gaussian blur.
type BlurConfig struct {
	Enabled    bool `json:"enabled" yaml:"enabled"`
	KernelSize int  `json:"kernel_size" yaml:"kernel_size"`
}

// BrightnessConfig toggles the alpha/beta adjustment.
type BrightnessConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Alpha   float64 `json:"alpha" yaml:"alpha"`
	Beta    float64 `json:"beta" yaml:"beta"`
}

// SnapshotConfig enables hit snapshots when Dir is set.
type SnapshotConfig struct {
	Dir      string        `json:"dir" yaml:"dir"`
	Format   string        `json:"format" yaml:"format"`
	Width    uint          `json:"width" yaml:"width"`
	Interval time.Duration `json:"interval" yaml:"interval"`
	Quality  int           `json:"quality" yaml:"quality"`
}

// Config holds every runtime option.
type Config struct {
	// Source is a capture device id, a video file, an image or a directory
	// of images.
	Source string `json:"source" yaml:"source"`

	WorkingResolution images.Resolution `json:"working_resolution" yaml:"working_resolution"`
	VirtualResolution images.Resolution `json:"virtual_resolution" yaml:"virtual_resolution"`

	Resize     ResizeConfig     `json:"resize" yaml:"resize"`
	Blur       BlurConfig       `json:"blur" yaml:"blur"`
	Brightness BrightnessConfig `json:"brightness" yaml:"brightness"`

	// ColorRange is used unless TargetColor is set.
	ColorRange images.ColorRange `json:"color_range" yaml:"color_range"`
	// TargetColor is a hex color ("#d4e157"); the range is derived from it
	// with Tolerance.
	TargetColor string `json:"target_color" yaml:"target_color"`
	Tolerance   int    `json:"tolerance" yaml:"tolerance"`

	ErodeIterations  int `json:"erode_iterations" yaml:"erode_iterations"`
	DilateIterations int `json:"dilate_iterations" yaml:"dilate_iterations"`

	MinArea      float64 `json:"min_area" yaml:"min_area"`
	Scale        float64 `json:"scale" yaml:"scale"`
	MarkerRadius int     `json:"marker_radius" yaml:"marker_radius"`
	Retrieval    string  `json:"retrieval" yaml:"retrieval"`

	ShowWindow bool `json:"show_window" yaml:"show_window"`
	Tuning     bool `json:"tuning" yaml:"tuning"`

	Snapshots SnapshotConfig `json:"snapshots" yaml:"snapshots"`

	// ReportInterval between statistics log lines; zero or negative disables
	// them.
	ReportInterval time.Duration `json:"report_interval" yaml:"report_interval"`
	LogLevel       string        `json:"log_level" yaml:"log_level"`
	NoColor        bool          `json:"no_color" yaml:"no_color"`
}

// Default returns a Config populated with standard defaults.
func Default() *Config {
	pre := images.DefaultPreprocessConfig()
	seg := images.DefaultSegmentConfig()
	return &Config{
		Source:            "0",
		WorkingResolution: pre.Resolution,
		VirtualResolution: images.DefaultVirtualResolution,
		Resize:            ResizeConfig{Enabled: pre.Resize},
		Blur:              BlurConfig{Enabled: pre.Blur, KernelSize: pre.BlurKernelSize},
		Brightness:        BrightnessConfig{Enabled: pre.Brightness, Alpha: pre.Alpha, Beta: pre.Beta},
		ColorRange:        images.DefaultColorRange(),
		Tolerance:         40,
		ErodeIterations:   seg.ErodeIterations,
		DilateIterations:  seg.DilateIterations,
		MinArea:           detector.DefaultMinimumArea,
		Scale:             mapping.DefaultScale,
		MarkerRadius:      render.DefaultMarkerRadius,
		Retrieval:         string(detector.RetrievalExternal),
		ShowWindow:        true,
		Snapshots: SnapshotConfig{
			Format:   string(images.FormatPNG),
			Width:    480,
			Interval: time.Second,
			Quality:  90,
		},
		ReportInterval: 2 * time.Second,
		LogLevel:       "info",
	}
}

// Load reads the YAML file at path over Default(). An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}

// Validate checks every option. Unlike the segmenter, it rejects reversed
// color ranges.
func (c *Config) Validate() error {
	if !c.VirtualResolution.Valid() {
		return errors.Errorf("invalid virtual resolution %s", c.VirtualResolution)
	}
	if c.Scale <= 0 {
		return errors.Errorf("scale must be positive, got %g", c.Scale)
	}
	if c.MarkerRadius <= 0 {
		return errors.Errorf("marker radius must be positive, got %d", c.MarkerRadius)
	}
	if c.MinArea < 0 {
		return errors.Errorf("minimum area must be non-negative, got %g", c.MinArea)
	}
	if _, err := detector.ParseRetrievalMode(c.Retrieval); err != nil {
		return err
	}
	if _, err := c.Range(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Snapshots.Dir != "" {
		if _, err := images.ParseImageFormat(c.Snapshots.Format); err != nil {
			return err
		}
		if c.Snapshots.Interval < 0 {
			return errors.Errorf("snapshot interval must be non-negative, got %s", c.Snapshots.Interval)
		}
	}

	pipeline := c.Pipeline()
	if err := pipeline.Preprocess.Validate(); err != nil {
		return err
	}
	return pipeline.Segment.Validate()
}

// Range returns the configured color range, derived from TargetColor when
// one is set.
func (c *Config) Range() (images.ColorRange, error) {
	rng := c.ColorRange
	if c.TargetColor != "" {
		var err error
		if rng, err = images.RangeFromHex(c.TargetColor, c.Tolerance); err != nil {
			return images.ColorRange{}, err
		}
	}
	if err := rng.Validate(); err != nil {
		return images.ColorRange{}, errors.Wrap(err, "invalid color range")
	}
	return rng, nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Pipeline converts the options into the per-frame pipeline parameters.
func (c *Config) Pipeline() controller.PipelineConfig {
	seg := images.DefaultSegmentConfig()
	seg.ErodeIterations = c.ErodeIterations
	seg.DilateIterations = c.DilateIterations

	mode, err := detector.ParseRetrievalMode(c.Retrieval)
	if err != nil {
		mode = detector.RetrievalMode(c.Retrieval)
	}

	return controller.PipelineConfig{
		Preprocess: images.PreprocessConfig{
			Resize:         c.Resize.Enabled,
			Resolution:     c.WorkingResolution,
			Blur:           c.Blur.Enabled,
			BlurKernelSize: c.Blur.KernelSize,
			Brightness:     c.Brightness.Enabled,
			Alpha:          c.Brightness.Alpha,
			Beta:           c.Brightness.Beta,
		},
		Segment:   seg,
		MinArea:   c.MinArea,
		Retrieval: mode,
		Virtual:   c.VirtualResolution,
		Scale:     c.Scale,
	}
}

// SnapshotOptions converts the snapshot section for render.NewSnapshots.
func (c *Config) SnapshotOptions(logger *slog.Logger) (render.SnapshotOptions, error) {
	format, err := images.ParseImageFormat(c.Snapshots.Format)
	if err != nil {
		return render.SnapshotOptions{}, err
	}
	return render.SnapshotOptions{
		Dir:      c.Snapshots.Dir,
		Format:   format,
		Width:    c.Snapshots.Width,
		Interval: c.Snapshots.Interval,
		Quality:  c.Snapshots.Quality,
		Virtual:  c.VirtualResolution,
		Radius:   c.MarkerRadius,
		Logger:   logger,
	}, nil
}
