package config

import "flag"

// Flags binds command-line options to a Config. Only flags that were set on
// the command line override the loaded values.
type Flags struct {
	// Path is the YAML config file given with -config.
	Path string

	fs     *flag.FlagSet
	values *Config
	apply  map[string]func(dst, src *Config)
}

// BindFlags registers every option on fs. Call Apply after fs.Parse.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		fs:     fs,
		values: Default(),
		apply:  make(map[string]func(dst, src *Config)),
	}
	v := f.values

	fs.StringVar(&f.Path, "config", "", "Path to a YAML config file")

	f.bind("source", func(d, s *Config) { d.Source = s.Source })
	fs.StringVar(&v.Source, "source", v.Source, "Capture device id, video file, image file or image directory")

	f.bind("working", func(d, s *Config) { d.WorkingResolution = s.WorkingResolution })
	fs.TextVar(&v.WorkingResolution, "working", v.WorkingResolution, "Working resolution (WxH or alias such as vga)")

	f.bind("virtual", func(d, s *Config) { d.VirtualResolution = s.VirtualResolution })
	fs.TextVar(&v.VirtualResolution, "virtual", v.VirtualResolution, "Virtual screen resolution (WxH or alias such as 1080p)")

	f.bind("resize", func(d, s *Config) { d.Resize.Enabled = s.Resize.Enabled })
	fs.BoolVar(&v.Resize.Enabled, "resize", v.Resize.Enabled, "Resize frames to the working resolution")

	f.bind("blur", func(d, s *Config) { d.Blur.Enabled = s.Blur.Enabled })
	fs.BoolVar(&v.Blur.Enabled, "blur", v.Blur.Enabled, "Apply a Gaussian blur")

	f.bind("blur-kernel", func(d, s *Config) { d.Blur.KernelSize = s.Blur.KernelSize })
	fs.IntVar(&v.Blur.KernelSize, "blur-kernel", v.Blur.KernelSize, "Gaussian blur kernel size (odd)")

	f.bind("brightness", func(d, s *Config) { d.Brightness.Enabled = s.Brightness.Enabled })
	fs.BoolVar(&v.Brightness.Enabled, "brightness", v.Brightness.Enabled, "Apply the brightness/contrast adjustment")

	f.bind("alpha", func(d, s *Config) { d.Brightness.Alpha = s.Brightness.Alpha })
	fs.Float64Var(&v.Brightness.Alpha, "alpha", v.Brightness.Alpha, "Brightness gain")

	f.bind("beta", func(d, s *Config) { d.Brightness.Beta = s.Brightness.Beta })
	fs.Float64Var(&v.Brightness.Beta, "beta", v.Brightness.Beta, "Brightness offset")

	f.bind("color", func(d, s *Config) { d.TargetColor = s.TargetColor })
	fs.StringVar(&v.TargetColor, "color", v.TargetColor, "Target color as hex (overrides color_range)")

	f.bind("tolerance", func(d, s *Config) { d.Tolerance = s.Tolerance })
	fs.IntVar(&v.Tolerance, "tolerance", v.Tolerance, "Tolerance around the target color")

	f.bind("erode", func(d, s *Config) { d.ErodeIterations = s.ErodeIterations })
	fs.IntVar(&v.ErodeIterations, "erode", v.ErodeIterations, "Erosion iterations")

	f.bind("dilate", func(d, s *Config) { d.DilateIterations = s.DilateIterations })
	fs.IntVar(&v.DilateIterations, "dilate", v.DilateIterations, "Dilation iterations")

	f.bind("min-area", func(d, s *Config) { d.MinArea = s.MinArea })
	fs.Float64Var(&v.MinArea, "min-area", v.MinArea, "Minimum region area in pixels (inclusive)")

	f.bind("scale", func(d, s *Config) { d.Scale = s.Scale })
	fs.Float64Var(&v.Scale, "scale", v.Scale, "Exaggeration factor for mapped coordinates")

	f.bind("radius", func(d, s *Config) { d.MarkerRadius = s.MarkerRadius })
	fs.IntVar(&v.MarkerRadius, "radius", v.MarkerRadius, "Marker radius on the virtual screen")

	f.bind("retrieval", func(d, s *Config) { d.Retrieval = s.Retrieval })
	fs.StringVar(&v.Retrieval, "retrieval", v.Retrieval, "Contour retrieval mode (external or tree)")

	f.bind("show-window", func(d, s *Config) { d.ShowWindow = s.ShowWindow })
	fs.BoolVar(&v.ShowWindow, "show-window", v.ShowWindow, "Show the preview and virtual screen windows")

	f.bind("tuning", func(d, s *Config) { d.Tuning = s.Tuning })
	fs.BoolVar(&v.Tuning, "tuning", v.Tuning, "Show HSV trackbars to adjust the color range live")

	f.bind("snapshot-dir", func(d, s *Config) { d.Snapshots.Dir = s.Snapshots.Dir })
	fs.StringVar(&v.Snapshots.Dir, "snapshot-dir", v.Snapshots.Dir, "Directory for hit snapshots (disabled when empty)")

	f.bind("snapshot-format", func(d, s *Config) { d.Snapshots.Format = s.Snapshots.Format })
	fs.StringVar(&v.Snapshots.Format, "snapshot-format", v.Snapshots.Format, "Snapshot format (png, jpeg or webp)")

	f.bind("snapshot-interval", func(d, s *Config) { d.Snapshots.Interval = s.Snapshots.Interval })
	fs.DurationVar(&v.Snapshots.Interval, "snapshot-interval", v.Snapshots.Interval, "Minimum time between snapshots")

	f.bind("report-interval", func(d, s *Config) { d.ReportInterval = s.ReportInterval })
	fs.DurationVar(&v.ReportInterval, "report-interval", v.ReportInterval, "Statistics log interval (0 disables)")

	f.bind("log-level", func(d, s *Config) { d.LogLevel = s.LogLevel })
	fs.StringVar(&v.LogLevel, "log-level", v.LogLevel, "Log level (debug, info, warn, error)")

	f.bind("no-color", func(d, s *Config) { d.NoColor = s.NoColor })
	fs.BoolVar(&v.NoColor, "no-color", v.NoColor, "Disable colored log output")

	return f
}

func (f *Flags) bind(name string, apply func(dst, src *Config)) {
	f.apply[name] = apply
}

// Apply copies every explicitly set flag into cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		if apply, ok := f.apply[fl.Name]; ok {
			apply(cfg, f.values)
		}
	})
}

// Load parses the config file named by -config and applies the flags.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.Path)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
