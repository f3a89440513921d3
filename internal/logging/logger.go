// Package logging provides structured logging for levelsweep using zerolog.
//
// Terminals get human-readable console output; everything else (cron, CI,
// piped output) gets one JSON object per line.
//
//	log := logging.FromContext(ctx)
//	log.Info().Str("file", path).Str("key", key).Msg("Skipping existing level")
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Format selects the log encoding
type Format string

const (
	FormatAuto    Format = "auto"
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

var defaultLogger = newLogger(os.Stderr, zerolog.InfoLevel, FormatAuto)

// Nop discards everything. Useful in tests.
var Nop = zerolog.Nop()

// Default returns the process-wide logger
func Default() *zerolog.Logger {
	return &defaultLogger
}

// Configure rebuilds the default logger from a level name and a format.
// An empty level means info.
func Configure(level string, format Format) (*zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	defaultLogger = newLogger(os.Stderr, lvl, format)
	return &defaultLogger, nil
}

// New creates a JSON logger writing to w at the default logger's level
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(defaultLogger.GetLevel()).
		With().
		Timestamp().
		Logger()
}

// ParseLevel parses a zerolog level name, defaulting to info
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func newLogger(out *os.File, level zerolog.Level, format Format) zerolog.Logger {
	var w io.Writer = out
	if format == FormatConsole || (format != FormatJSON && isTerminal(out)) {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// isTerminal reports whether f is an interactive terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
