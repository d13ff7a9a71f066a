// Package logutil applies the toolchain logging conventions to a logrus
// logger. All projects share the same knobs: a level and a format, both
// usually coming from the "logging" section of the shared configuration.
package logutil

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	// FormatJSON emits one JSON object per log line.
	FormatJSON = "json"
	// FormatText emits human-readable lines for interactive use.
	FormatText = "text"
)

// Configure sets the level and formatter of logger. An empty level or
// format keeps the toolchain default (info, JSON).
func Configure(logger *logrus.Logger, level, format string) error {
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(parsed)

	switch format {
	case FormatJSON, "":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

// New returns a logger carrying the toolchain defaults.
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}
