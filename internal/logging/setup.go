// Package logging builds the zerolog logger used by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ome/omero-render/internal/config"
)

// Setup creates the logger described by cfg, writing to stderr and, when
// cfg.File is set, to a rotating log file. The returned closer releases the
// file; it is a no-op without one.
func Setup(cfg config.LogConfig, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q", cfg.Level)
	}

	var console io.Writer = stderr
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}
	}

	writer := console
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		// Create logs directory with secure permissions (0700 - owner only)
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create logs directory: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writer = io.MultiWriter(console, fileWriter)
		closer = fileWriter
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	// Set the global logger so packages logging through zerolog/log agree
	log.Logger = logger

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
