// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package logging sets up the program logger. Before the configuration is
// parsed, logging goes through a bootstrap logger that is controlled by an
// environment variable; after parsing, the default logger is replaced with
// one built from the logging configuration.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rvandermeulen/application-services/internal/log"
	"golang.org/x/term"
)

// Default values for the logger.
const (
	defaultFilePerm       os.FileMode = 0o644                              // log file permissions
	defaultJSONTimeFormat             = "2006-01-02T15:04:05.000000-07:00" // time format for JSON output
	defaultTextTimeFormat             = "2006-01-02 15:04:05"              // time format for text output
)

// Errors for logging.
var (
	errInvalidFormat = errors.New("given log format not supported")
	errInvalidLevel  = errors.New("given log level not supported")
)

// A Config is the logging configuration of the program.
type Config struct {
	// Enabled tells whether logging is enabled at all.
	Enabled bool `mapstructure:"enabled"`

	// Format is the output format, "text" or "json". Leaving it empty picks
	// "text" when the output is a terminal and "json" otherwise.
	Format string `mapstructure:"format"`

	// Level is the minimum level to log: "trace", "debug", "info", "warn", or
	// "error".
	Level string `mapstructure:"level"`

	// Output is where the log is written: "stderr", "stdout", or a file path.
	Output string `mapstructure:"output"`
}

// DefaultConfig returns the logging configuration used when the config file
// sets nothing.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Format:  "",
		Level:   "info",
		Output:  "stderr",
	}
}

// InitBootstrap initializes the bootstrap logger and sets it as the default
// logger in [log/slog].
func InitBootstrap() {
	debugVar := strings.ToLower(os.Getenv("ASGRAPH_DEBUG"))

	if debugVar != "true" && debugVar != "1" {
		slog.SetDefault(slog.New(slog.DiscardHandler))

		return
	}

	//nolint:exhaustruct
	slog.SetDefault(
		slog.New(
			slog.NewTextHandler(
				os.Stderr,
				&slog.HandlerOptions{AddSource: true, Level: log.LevelTrace},
			),
		),
	)
}

// Init initializes the proper logger of the program and sets it as the
// default logger in [log/slog].
func Init(cfg Config) error {
	if !cfg.Enabled {
		slog.SetDefault(slog.New(slog.DiscardHandler))

		return nil
	}

	var (
		w  io.Writer
		fd int
	)

	switch strings.ToLower(cfg.Output) {
	case "stderr":
		w = os.Stderr
		fd = int(os.Stderr.Fd())
	case "stdout":
		w = os.Stdout
		fd = int(os.Stdout.Fd())
	default:
		fw, err := os.OpenFile(cfg.Output, os.O_WRONLY|os.O_APPEND|os.O_CREATE, defaultFilePerm)
		if err != nil {
			return fmt.Errorf("failed to open log file at %s: %w", cfg.Output, err)
		}

		w = fw
		fd = -1
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		if fd >= 0 && term.IsTerminal(fd) {
			format = "text"
		} else {
			format = "json"
		}
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	timeFormat := defaultJSONTimeFormat
	if format == "text" {
		timeFormat = defaultTextTimeFormat
	}

	opts := &slog.HandlerOptions{ //nolint:exhaustruct
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(timeFormat))
			}

			return a
		},
	}

	var h slog.Handler

	switch format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("%w: %s", errInvalidFormat, cfg.Format)
	}

	slog.SetDefault(slog.New(h))

	return nil
}

// parseLevel converts the level name from the configuration into a slog
// level.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %s", errInvalidLevel, s)
	}
}
