package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLogLevel maps a config level string onto a zerolog level.
// Unknown values fall back to error.
func ParseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return zerolog.Disabled
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "":
		return zerolog.ErrorLevel
	default:
		return zerolog.ErrorLevel
	}
}

// NewLogger builds the application logger from the logging config.
// With a file configured, entries append to it as JSON lines; otherwise
// they go to stderr in console format. The returned closer is safe to
// call even when no file was opened.
func NewLogger(cfg LoggingConfig) (zerolog.Logger, func() error, error) {
	noClose := func() error { return nil }

	level := ParseLogLevel(cfg.Level)
	if level == zerolog.Disabled {
		return zerolog.Nop(), noClose, nil
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	closer := noClose

	if cfg.File != "" {
		path := ExpandHome(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return zerolog.Nop(), noClose, err
		}
		// #nosec G304 -- log file path is from validated config
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return zerolog.Nop(), noClose, err
		}
		w = f
		closer = f.Close
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}
