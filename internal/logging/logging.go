// Package logging sets up the zerolog logger for the TUI. The alt screen
// owns stdout, so all diagnostics go to a file.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns a logger writing to the file at path, plus a close function.
// An empty path resolves to a per-user default; an unopenable file yields
// a no-op logger rather than an error, since logging must never stop the
// client from running.
func New(path, level string) (zerolog.Logger, func() error) {
	if path == "" {
		path = defaultPath()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zerolog.Nop(), func() error { return nil }
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), func() error { return nil }
	}

	log := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return log, f.Close
}

// NewWriter returns a logger writing to w, for tests.
func NewWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func defaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "dost-tui.log")
	}
	return filepath.Join(dir, "dost", "tui.log")
}
