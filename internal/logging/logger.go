package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

var base = newLogger(os.Stderr, os.Getenv("LOG_FORMAT") == "console", os.Getenv("DEBUG") == "true")

func newLogger(w io.Writer, console, debug bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetOutput redirects logging (tests, console mode)
func SetOutput(w io.Writer, console, debug bool) {
	base = newLogger(w, console, debug)
}

// Logger returns the underlying zerolog logger for middleware
func Logger() zerolog.Logger {
	return base
}

// Info logs an informational message (always shown)
func Info(subsystem, format string, args ...any) {
	base.Info().Str("subsystem", subsystem).Msg(fmt.Sprintf(format, args...))
}

// Debug logs a debug message (only shown if DEBUG=true)
func Debug(subsystem, format string, args ...any) {
	base.Debug().Str("subsystem", subsystem).Msg(fmt.Sprintf(format, args...))
}

// Warn logs a recoverable problem
func Warn(subsystem, format string, args ...any) {
	base.Warn().Str("subsystem", subsystem).Msg(fmt.Sprintf(format, args...))
}

// Error logs a failure with its error
func Error(subsystem string, err error, format string, args ...any) {
	base.Error().Err(err).Str("subsystem", subsystem).Msg(fmt.Sprintf(format, args...))
}

// Truncate truncates a string to maxLen runes and adds ellipsis
func Truncate(s string, maxLen int) string {
	// Replace newlines with spaces for one-line logs
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
