package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel converts string (debug|info|warn|error) to slog.Level. Unknown → info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewDefault creates a logger writing to stderr with the given level string.
func NewDefault(level string) *slog.Logger {
	return New(os.Stderr, level)
}

// New creates a text logger writing to w with the given level string.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// FileOptions configures the rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewWithFile logs to stderr and, when opts.Path is set, to a rotating file.
// The returned closer releases the file and must be called on shutdown.
func NewWithFile(level string, opts FileOptions) (*slog.Logger, io.Closer) {
	if opts.Path == "" {
		return NewDefault(level), nopCloser{}
	}
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    orDefault(opts.MaxSizeMB, 50),
		MaxBackups: orDefault(opts.MaxBackups, 5),
		MaxAge:     orDefault(opts.MaxAgeDays, 30),
		Compress:   true,
	}
	return New(io.MultiWriter(os.Stderr, lj), level), lj
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
