// Package logging builds the zerolog logger used by the rangefs command.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes log output.
type Config struct {
	// Level is a zerolog level name: trace, debug, info, warn, error, disabled.
	Level string `mapstructure:"level"`

	// Format is "console" for human-readable output or "json".
	Format string `mapstructure:"format"`

	// NoTerminal suppresses terminal output; only File receives logs.
	NoTerminal bool `mapstructure:"no_terminal"`

	// File, when set, receives JSON logs through a rotating writer.
	File string `mapstructure:"file"`

	// Rotation settings for File.
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// DefaultConfig returns info-level console logging with rotation defaults
// applied if a file is configured later.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  128,
		MaxBackups: 5,
		MaxAgeDays: 16,
	}
}

// New builds a logger writing to term (usually os.Stderr) and, if
// configured, a rotating file. The returned closer releases the file and
// must be called on shutdown.
func New(cfg Config, term io.Writer) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}

	var writers []io.Writer
	if !cfg.NoTerminal {
		if term == nil {
			term = os.Stderr
		}
		switch cfg.Format {
		case "", "console":
			writers = append(writers, zerolog.ConsoleWriter{Out: term, TimeFormat: time.DateTime})
		case "json":
			writers = append(writers, term)
		default:
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: unknown format %q", cfg.Format)
		}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
