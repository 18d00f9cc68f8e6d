// Package logging provides the logger used across drive-cleaner.
// Messages carry slog-style key/value pairs.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects level, format and destination of the log stream.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	Output string // stdout, stderr or a file path
	File   string // optional extra file; "{date}" expands to MM_DD_YYYY
}

// SlogLogger is the Logger backed by log/slog.
type SlogLogger struct {
	slog    *slog.Logger
	closers []io.Closer
}

// New builds a SlogLogger from cfg.
func New(cfg Config) (*SlogLogger, error) {
	level, ok := parseLevel(cfg.Level)
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s (expected: debug, info, warn, error)", cfg.Level)
	}

	var closers []io.Closer

	out, c, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	if c != nil {
		closers = append(closers, c)
	}

	if cfg.File != "" {
		f, err := openFile(ExpandDate(cfg.File, time.Now()))
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		closers = append(closers, f)
		out = io.MultiWriter(out, f)
	}

	l, err := NewWithWriter(out, level, cfg.Format)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	l.closers = closers
	return l, nil
}

// NewWithWriter builds a SlogLogger writing to w.
func NewWithWriter(w io.Writer, level slog.Level, format string) (*SlogLogger, error) {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s (expected: json, text)", format)
	}
	return &SlogLogger{slog: slog.New(h)}, nil
}

// ExpandDate replaces "{date}" in path with t formatted as MM_DD_YYYY.
func ExpandDate(path string, t time.Time) string {
	return strings.ReplaceAll(path, "{date}", t.Format("01_02_2006"))
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a logger that always adds args.
func (l *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{slog: l.slog.With(args...)}
}

// Close releases any log files opened by New.
func (l *SlogLogger) Close() error {
	err := closeAll(l.closers)
	l.closers = nil
	return err
}

// With attaches args to any Logger, keeping the concrete slog path when possible.
func With(l Logger, args ...any) Logger {
	if sl, ok := l.(*SlogLogger); ok {
		return sl.With(args...)
	}
	return l
}

// Nop discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	f, err := openFile(output)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func openFile(path string) (*os.File, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

func closeAll(cs []io.Closer) error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
