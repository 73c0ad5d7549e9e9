// Package source provides frame sources for the detection loop: capture
// devices, video files and still images.
package source

import (
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/controller"
)

// Supported file extensions.
var (
	VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}
)

// Kind identifies what a source string refers to.
type Kind int

// Source kinds.
const (
	KindDevice Kind = iota
	KindVideo
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindVideo:
		return "video"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Classify decides whether s is a device id, a video file or an image path.
// Directories are treated as image sequences.
func Classify(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return KindDevice, nil
	}
	if _, err := strconv.Atoi(s); err == nil {
		return KindDevice, nil
	}
	if isDir(s) {
		return KindImage, nil
	}

	ext := strings.ToLower(filepath.Ext(s))
	if hasExtension(ext, VideoExtensions) {
		return KindVideo, nil
	}
	if hasExtension(ext, ImageExtensions) {
		return KindImage, nil
	}
	return 0, errors.Errorf("unsupported source %q: extension %q is neither a video (%v) nor an image (%v)",
		s, ext, VideoExtensions, ImageExtensions)
}

// Open returns the frame source described by s: a device id ("0"), a video
// file, an image file or a directory of images.
func Open(s string, logger *slog.Logger) (controller.FrameSource, error) {
	kind, err := Classify(s)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindImage:
		return NewStills(s, logger)
	case KindVideo:
		return OpenVideo(s, logger)
	default:
		id := 0
		if s = strings.TrimSpace(s); s != "" {
			id, _ = strconv.Atoi(s)
		}
		return OpenDevice(id, logger)
	}
}

// Camera reads frames from a capture device or a video file.
type Camera struct {
	capture *gocv.VideoCapture
	name    string
	file    bool
	logger  *slog.Logger
}

// OpenDevice opens the capture device with the given id.
//
// Always call Close() to release the device.
func OpenDevice(id int, logger *slog.Logger) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture device %d", id)
	}
	return newCamera(capture, strconv.Itoa(id), false, logger), nil
}

// OpenVideo opens a video file. Reaching the end of the file ends the stream.
//
// Always call Close() to release the file.
func OpenVideo(path string, logger *slog.Logger) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open video file %s", path)
	}
	return newCamera(capture, path, true, logger), nil
}

func newCamera(capture *gocv.VideoCapture, name string, file bool, logger *slog.Logger) *Camera {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opened capture",
		"source", name,
		"width", int(capture.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(capture.Get(gocv.VideoCaptureFrameHeight)),
		"fps", capture.Get(gocv.VideoCaptureFPS),
	)
	return &Camera{capture: capture, name: name, file: file, logger: logger}
}

// Read grabs the next frame into dst.
//
// A failed read on a video file is the end of the stream; on a device it is
// an acquisition failure.
func (c *Camera) Read(dst *gocv.Mat) error {
	if ok := c.capture.Read(dst); ok {
		return nil
	}
	if c.file {
		return controller.ErrEndOfStream
	}
	return errors.Errorf("cannot read capture device %s", c.name)
}

// Close releases the capture.
func (c *Camera) Close() error {
	return c.capture.Close()
}

func hasExtension(ext string, exts []string) bool {
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
