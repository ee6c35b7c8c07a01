// Package logging builds the slog.Logger shared by the edutrack binaries.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel converts "debug", "info", "warn" or "error" (any case) to a
// slog.Level. An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// New returns a logger writing to w in the given format at the given level.
func New(w io.Writer, format, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case FormatText, "":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("log format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
	return slog.New(h), nil
}

// BadgerLogger adapts a slog.Logger to badger's printf style Logger.
// Badger is chatty at info level, so its info messages are logged at debug.
type BadgerLogger struct {
	logger *slog.Logger
}

// NewBadgerLogger returns a BadgerLogger tagged with component=badger.
func NewBadgerLogger(logger *slog.Logger) *BadgerLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerLogger{logger: logger.With("component", "badger")}
}

func (l *BadgerLogger) Errorf(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l *BadgerLogger) Warningf(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *BadgerLogger) Infof(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *BadgerLogger) Debugf(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *BadgerLogger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}
