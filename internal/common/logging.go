// Package common provides shared utilities for Fundwatch
package common

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Logger wraps phuslu/log.Logger to provide a consistent interface
type Logger struct {
	log.Logger
}

func parseLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLogger creates a new console logger with the specified level
func NewLogger(level string) *Logger {
	return &Logger{Logger: log.Logger{
		Level:      parseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         os.Stderr,
			ColorOutput:    true,
			EndWithMessage: true,
		},
	}}
}

// NewLoggerFromConfig creates a logger honoring the configured outputs.
// "console" writes to stderr, "file" to a size-rotated log file.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	var writers log.MultiEntryWriter

	for _, output := range cfg.Outputs {
		switch output {
		case "console", "stdout":
			writers = append(writers, &log.ConsoleWriter{
				Writer:         os.Stderr,
				ColorOutput:    true,
				EndWithMessage: true,
			})
		case "file":
			if cfg.FilePath == "" {
				continue
			}
			maxSize := int64(cfg.MaxSizeMB)
			if maxSize <= 0 {
				maxSize = 100
			}
			writers = append(writers, &log.FileWriter{
				Filename:     cfg.FilePath,
				MaxSize:      maxSize * 1024 * 1024,
				MaxBackups:   cfg.MaxBackups,
				EnsureFolder: true,
				LocalTime:    true,
			})
		}
	}

	if len(writers) == 0 {
		return NewLogger(cfg.Level)
	}

	return &Logger{Logger: log.Logger{
		Level:      parseLevel(cfg.Level),
		TimeFormat: "15:04:05",
		Writer:     &writers,
	}}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	return &Logger{Logger: log.Logger{
		Level:  log.ErrorLevel,
		Writer: log.IOWriter{Writer: io.Discard},
	}}
}
