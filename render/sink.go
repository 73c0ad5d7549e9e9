package render

import (
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-hitmap/mapping"
)

// Sink consumes the output of a detection cycle.
type Sink interface {
	Hit(p mapping.VirtualPoint) error
	Preview(frame gocv.Mat) error
}

// Multi fans every call out to each sink in order and returns the first
// error. Later sinks still run when an earlier one fails.
type Multi []Sink

// Hit forwards p to every sink.
func (m Multi) Hit(p mapping.VirtualPoint) error {
	var first error
	for _, s := range m {
		if err := s.Hit(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Preview forwards frame to every sink.
func (m Multi) Preview(frame gocv.Mat) error {
	var first error
	for _, s := range m {
		if err := s.Preview(frame); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Log writes hits to a structured logger. Used for headless runs.
type Log struct {
	Logger *slog.Logger
}

// Hit logs the mapped point.
func (l Log) Hit(p mapping.VirtualPoint) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("hit", "x", p.X, "y", p.Y)
	return nil
}

// Preview is a no-op.
func (l Log) Preview(gocv.Mat) error {
	return nil
}
