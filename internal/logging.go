package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// NewLogger builds the diagnostic logger. Debug level adds per-request lines.
func NewLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewConsoleLogger writes human readable lines, for one-shot commands with --verbose
func NewConsoleLogger(w io.Writer, verbose bool) zerolog.Logger {
	return NewLogger(zerolog.ConsoleWriter{Out: w, NoColor: true}, verbose)
}

// OpenLogFile opens the log for appending, creating its directory if needed.
// The interactive mode must never log to the terminal it draws on.
func OpenLogFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
