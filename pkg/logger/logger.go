// Package logger provides slog loggers with a colored text handler for
// terminal output. Warnings render yellow, errors red, and database
// persistence messages green so store activity stands out in long runs.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ANSI color codes used by the handler.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// Handler is a slog.Handler that writes colored, human-readable lines.
type Handler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Level
	attrs []slog.Attr
	group string
}

// NewHandler creates a colored handler writing to out at the given level.
func NewHandler(out io.Writer, level slog.Level) *Handler {
	return &Handler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder

	sb.WriteString(record.Time.Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(record.Level.String())
	sb.WriteString(" ")
	sb.WriteString(record.Message)

	appendAttr := func(attr slog.Attr) bool {
		key := attr.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		sb.WriteString(fmt.Sprintf(" %s=%v", key, attr.Value.Any()))
		return true
	}
	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	record.Attrs(appendAttr)

	line := sb.String()
	switch {
	case record.Level >= slog.LevelError:
		line = colorRed + line + colorReset
	case record.Level >= slog.LevelWarn:
		line = colorYellow + line + colorReset
	case strings.Contains(strings.ToLower(record.Message), "persist"),
		strings.Contains(strings.ToLower(record.Message), "pruned"):
		line = colorGreen + line + colorReset
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, line)
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// NewLogger creates a logger writing colored lines to out.
func NewLogger(out io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(out, level))
}

// NewDefaultLogger creates a logger writing colored lines to stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(os.Stderr, level)
}

// ParseLevel maps a config string to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
