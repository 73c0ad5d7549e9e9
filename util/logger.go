// Package util holds small helpers shared by the commands.
package util

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// NewLogger returns a console logger writing to stderr.
func NewLogger(level slog.Leveler, noColor bool) *slog.Logger {
	return NewLoggerTo(os.Stderr, level, noColor)
}

// NewLoggerTo returns a console logger writing to w.
func NewLoggerTo(w io.Writer, level slog.Leveler, noColor bool) *slog.Logger {
	return slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
			NoColor:    noColor,
		}),
	)
}
