package source

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/controller"
)

// Stills replays image files as frames, one file per Read, then ends the
// stream.
type Stills struct {
	paths  []string
	next   int
	logger *slog.Logger
}

// NewStills creates a source from a single image file or every supported
// image in a directory, in name order.
func NewStills(path string, logger *slog.Logger) (*Stills, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var paths []string
	if isDir(path) {
		found, err := ListImages(path)
		if err != nil {
			return nil, err
		}
		paths = found
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "stat image %s", path)
		}
		paths = []string{path}
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no images found in %s", path)
	}

	logger.Info("opened stills", "source", path, "images", len(paths))
	return &Stills{paths: paths, logger: logger}, nil
}

// ListImages returns the supported image files directly under dir, sorted by
// name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read image directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasExtension(strings.ToLower(filepath.Ext(entry.Name())), ImageExtensions) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Len returns the number of images.
func (s *Stills) Len() int {
	return len(s.paths)
}

// Read decodes the next image into dst as a BGR frame. After the last image
// it returns controller.ErrEndOfStream.
func (s *Stills) Read(dst *gocv.Mat) error {
	if s.next >= len(s.paths) {
		return controller.ErrEndOfStream
	}
	path := s.paths[s.next]
	s.next++

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return errors.Wrapf(err, "decode image %s", path)
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return errors.Wrapf(err, "convert image %s", path)
	}
	defer mat.Close()

	if err := mat.CopyTo(dst); err != nil {
		return errors.Wrapf(err, "copy image %s", path)
	}
	s.logger.Debug("read still", "path", path, "width", mat.Cols(), "height", mat.Rows())
	return nil
}

// Close is a no-op; images are decoded per Read.
func (s *Stills) Close() error {
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
