// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Options select the global level and output format.
type Options struct {
	Level  string // zerolog level name; empty means info
	Format string // FormatJSON or FormatText; empty means json
	Quiet  bool   // raise the level to warn
	Debug  bool   // lower the level to debug
}

// SetupLogger configures the global logger to write to stderr.
func SetupLogger(opts Options) error {
	return SetupLoggerTo(os.Stderr, opts)
}

// SetupLoggerTo configures the global logger to write to w.
func SetupLoggerTo(w io.Writer, opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	switch {
	case opts.Debug:
		level = zerolog.DebugLevel
	case opts.Quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer
	switch opts.Format {
	case "", FormatJSON:
		out = w
	case FormatText:
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		}
	default:
		return fmt.Errorf("log format: unknown %q (want %s or %s)", opts.Format, FormatJSON, FormatText)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		log.Logger = log.Logger.With().Caller().Logger()
	}
	log.Debug().Str("level", level.String()).Str("format", opts.Format).Msg("logger initialized")
	return nil
}

// GetLogger returns a logger tagged with the component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogOperationStart logs the start of an operation and returns a function
// logging its completion with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("operation started")
	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("operation completed")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
