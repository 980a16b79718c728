// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level         string `yaml:"level"`  // debug, info, warn, error
	Format        string `yaml:"format"` // json, pretty
	FileEnabled   bool   `yaml:"file_enabled"`
	FilePath      string `yaml:"file_path"`      // logs directory
	RotationSize  int    `yaml:"rotation_size"`  // MB
	RetentionDays int    `yaml:"retention_days"`

	// Console defaults to stderr.
	Console io.Writer `yaml:"-"`
}

// errorOnly forwards only error-and-above events.
type errorOnly struct {
	io.Writer
}

func (w errorOnly) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return w.Write(p)
}

// Init initializes the global logger
func Init(cfg Config) error {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	if cfg.Format == "pretty" {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"})
	} else {
		writers = append(writers, console)
	}

	if cfg.FileEnabled {
		if err := os.MkdirAll(cfg.FilePath, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers,
			&lumberjack.Logger{
				Filename:   filepath.Join(cfg.FilePath, "sentinel.log"),
				MaxSize:    cfg.RotationSize,
				MaxAge:     cfg.RetentionDays,
				MaxBackups: 10,
				Compress:   true,
			},
			errorOnly{&lumberjack.Logger{
				Filename:   filepath.Join(cfg.FilePath, "error.log"),
				MaxSize:    cfg.RotationSize,
				MaxAge:     cfg.RetentionDays,
				MaxBackups: 10,
				Compress:   true,
			}},
		)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Str("service", "sentinel").
		Logger()

	log.Debug().
		Str("level", level.String()).
		Str("format", cfg.Format).
		Bool("file_enabled", cfg.FileEnabled).
		Msg("logger initialized")
	return nil
}
