// Package slog adapts the standard structured logger to the domain Logger contract.
package slog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ochairo/preflight/internal/domain/interfaces"
)

// Logger implements interfaces.Logger on top of log/slog
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logger writing to w at the given level.
// Terminals get human-readable text output, anything else gets JSON.
func NewLogger(w io.Writer, level slog.Level) *Logger {
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}

	return &Logger{logger: slog.New(handler)}
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", name)
	}
}

// With returns a logger that adds fields to every record
func (l *Logger) With(fields ...interfaces.Field) *Logger {
	return &Logger{logger: l.logger.With(toArgs(fields)...)}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.Debug(msg, toArgs(fields)...)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.logger.Info(msg, toArgs(fields)...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.Warn(msg, toArgs(fields)...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.logger.Error(msg, toArgs(fields)...)
}

func toArgs(fields []interfaces.Field) []any {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			args = append(args, slog.String(f.Key, err.Error()))
			continue
		}
		args = append(args, slog.Any(f.Key, f.Value))
	}
	return args
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
