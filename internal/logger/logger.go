// Package logger builds the zerolog loggers used across blockpage.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0664

// Build collects logger options. The zero value writes info-level logs to stderr.
type Build struct {
	writer io.Writer
	path   string
	level  string
}

func New() *Build {
	return &Build{}
}

// FromPath appends log lines to the file at path instead of the writer.
func (b *Build) FromPath(path string) *Build {
	b.path = path
	return b
}

func (b *Build) FromWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

// WithLevel sets the minimum level: debug, info, warn or error.
func (b *Build) WithLevel(level string) *Build {
	b.level = level
	return b
}

// Logger is a built logger plus the file it owns, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Make opens the destination and returns the logger.
func (b *Build) Make() (*Logger, error) {
	level, err := ParseLevel(b.level)
	if err != nil {
		return nil, err
	}

	out := &Logger{}
	var w io.Writer = os.Stderr
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		out.file, err = os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.SyncWriter(out.file)
	}
	out.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return out, nil
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a config level name to a zerolog level. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
