// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the log level, format and optional rotated log file
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	File       string // empty logs to stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the global logger. When cfg.File is set, JSON lines are
// also written to a size-rotated file; the returned closer releases it.
func Setup(cfg Config) (io.Closer, error) {
	if cfg.File == "" {
		setup(os.Stderr, cfg.Level, cfg.Format)
		return nopCloser{}, nil
	}

	if cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 || cfg.MaxAgeDays <= 0 {
		return nil, fmt.Errorf("invalid log rotation: size=%d backups=%d age_days=%d",
			cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	setup(os.Stderr, cfg.Level, cfg.Format, file)
	log.Info().Str("path", cfg.File).Msg("file logging enabled")
	return file, nil
}

// setup builds the global logger over console and any extra sinks. Extra
// sinks always receive JSON.
func setup(console io.Writer, level, format string, sinks ...io.Writer) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(format, "console") {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}
	}
	out := console
	if len(sinks) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{console}, sinks...)...)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
