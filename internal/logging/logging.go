// Package logging builds the slog loggers used by the azfs command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where and how to log.
type Config struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string `yaml:"level" json:"level"`

	// Format is text or json. Empty means text.
	Format string `yaml:"format" json:"format"`

	// File, when set, receives a copy of every record and is rotated.
	File string `yaml:"file" json:"file"`

	// Quiet disables writing to stderr.
	Quiet bool `yaml:"quiet" json:"quiet"`

	Rotation Rotation `yaml:"rotation" json:"rotation"`
}

// Rotation controls log file rotation. Zero values use the defaults.
type Rotation struct {
	MaxSizeMB  int  `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool `yaml:"compress" json:"compress"`
}

const (
	defaultMaxSizeMB  = 128
	defaultMaxBackups = 5
	defaultMaxAgeDays = 16
)

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a logger from cfg. The returned closer flushes and closes the
// log file, if any.
func New(cfg Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if !cfg.Quiet {
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.Rotation.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(cfg.Rotation.MaxBackups, defaultMaxBackups),
			MaxAge:     orDefault(cfg.Rotation.MaxAgeDays, defaultMaxAgeDays),
			Compress:   cfg.Rotation.Compress,
		}
		writers = append(writers, file)
		closer = file
	}
	if len(writers) == 0 {
		return NewNop(), closer, nil
	}

	out := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), closer, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
