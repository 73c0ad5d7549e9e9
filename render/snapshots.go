package render

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/images"
	"github.com/nvr-ai/go-hitmap/mapping"
)

// SnapshotOptions configures hit snapshots.
type SnapshotOptions struct {
	// Dir receives the snapshot files. It is created if missing.
	Dir string
	// Format is the file encoding.
	Format images.ImageFormat
	// Width of the written image; height follows the aspect ratio. Zero keeps
	// the virtual screen size.
	Width uint
	// Interval is the minimum time between two snapshots.
	Interval time.Duration
	// Quality applies to JPEG and lossy WebP (1-100).
	Quality int
	// Virtual is the virtual screen resolution.
	Virtual images.Resolution
	// Radius is the marker radius.
	Radius int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Snapshots writes a scaled copy of the virtual screen to disk for each hit,
// at most once per Interval.
type Snapshots struct {
	opts   SnapshotOptions
	canvas *Canvas
	last   time.Time
	seq    int
}

// NewSnapshots prepares the output directory and the canvas.
//
// Always call Close() to release the canvas.
func NewSnapshots(opts SnapshotOptions) (*Snapshots, error) {
	if opts.Dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if !opts.Virtual.Valid() {
		return nil, errors.Errorf("invalid virtual resolution %s", opts.Virtual)
	}
	if opts.Format == "" {
		opts.Format = images.FormatPNG
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = images.DefaultQuality
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultMarkerRadius
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create snapshot directory %s", opts.Dir)
	}

	return &Snapshots{
		opts:   opts,
		canvas: NewCanvas(opts.Virtual, opts.Radius),
	}, nil
}

// Hit writes a snapshot unless one was written less than Interval ago.
func (s *Snapshots) Hit(p mapping.VirtualPoint) error {
	now := s.opts.Now()
	if s.seq > 0 && now.Sub(s.last) < s.opts.Interval {
		return nil
	}

	img, err := images.MatToThumbnail(s.canvas.Draw(p), s.opts.Width)
	if err != nil {
		return errors.Wrap(err, "render snapshot")
	}

	name := fmt.Sprintf("hit-%06d%s", s.seq+1, s.opts.Format.Extension())
	path := filepath.Join(s.opts.Dir, name)
	if err := writeImage(path, img, s.opts.Format, s.opts.Quality); err != nil {
		return err
	}
	s.seq++
	s.last = now

	s.opts.Logger.Debug("saved hit snapshot", "path", path, "x", p.X, "y", p.Y)
	return nil
}

// Preview is a no-op; snapshots only record hits.
func (s *Snapshots) Preview(gocv.Mat) error {
	return nil
}

// Count returns the number of snapshots written.
func (s *Snapshots) Count() int {
	return s.seq
}

// Close releases the canvas.
func (s *Snapshots) Close() error {
	return s.canvas.Close()
}

func writeImage(path string, img image.Image, format images.ImageFormat, quality int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create snapshot %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close snapshot %s", path)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := images.EncodeImage(f, img, format, quality); err != nil {
		return errors.Wrapf(err, "encode snapshot %s", path)
	}
	return nil
}
