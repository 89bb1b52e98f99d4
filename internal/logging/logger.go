package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/rdaconv/internal/storage"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 30
)

// Log levels - aliases for zerolog levels
const (
	ErrorLevel = zerolog.ErrorLevel
	WarnLevel  = zerolog.WarnLevel
	InfoLevel  = zerolog.InfoLevel
	DebugLevel = zerolog.DebugLevel
)

// Config defines the configuration for logger creation
type Config struct {
	Writer     io.Writer
	Path       string
	RunID      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      zerolog.Level
}

// New creates a new context with a logger attached
// For production: provide fs, leave Writer nil for rotated file logging at
// Path (or the XDG data dir when Path is empty)
// For tests: provide a custom Writer (like strings.Builder) for in-memory logging
func New(ctx context.Context, fs afero.Fs, config Config) (context.Context, error) {
	writer := config.Writer

	if writer == nil {
		if fs == nil {
			return nil, errors.New("filesystem required when no writer provided")
		}

		logFile, err := resolveLogPath(fs, config.Path)
		if err != nil {
			return nil, err
		}

		writer = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    orDefault(config.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(config.MaxBackups, defaultMaxBackups),
			MaxAge:     orDefault(config.MaxAgeDays, defaultMaxAgeDays),
		}
	}

	logger := zerolog.New(writer).With().
		Timestamp().
		Str("run_id", config.RunID).
		Logger().
		Level(config.Level)

	return logger.WithContext(ctx), nil
}

func resolveLogPath(fs afero.Fs, path string) (string, error) {
	if path == "" {
		logFile, err := storage.New(fs).GetLogPath()
		if err != nil {
			return "", fmt.Errorf("failed to get log path: %w", err)
		}
		return logFile, nil
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return path, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// ParseLevel converts a configured level name to a zerolog level, falling
// back to error level (the batch error log) when empty or unknown.
func ParseLevel(name string) zerolog.Level {
	if name == "" {
		return ErrorLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return ErrorLevel
	}
	return level
}

// Get retrieves the logger from the provided context
// Returns the logger associated with the context, or a disabled logger if none exists
func Get(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
