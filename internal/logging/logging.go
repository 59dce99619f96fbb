// Package logging sets up the structured logger used by the CLI.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. Debug output is only enabled
// when verbose is set.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Subsystem tags every record of log with a subsystem attribute.
func Subsystem(log *slog.Logger, name string) *slog.Logger {
	return log.With("subsystem", name)
}
