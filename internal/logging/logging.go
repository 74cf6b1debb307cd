// Package logging provides structured logging setup for rent-finder.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the default slog logger on stdout.
// Dev mode uses human-readable text; prod uses JSON.
func Setup(devMode bool) {
	SetupWriter(os.Stdout, devMode)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, devMode bool) {
	slog.SetDefault(slog.New(NewHandler(w, devMode)))
}

// NewHandler builds the handler Setup installs.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
