package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var log *slog.Logger

// Init sets up the global JSON logger. Call once at startup.
func Init() {
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// New wraps a handler into a logger. Used by tests to capture output.
func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

// NewJSONHandler mirrors slog.NewJSONHandler so callers don't need to
// import log/slog just to build a test logger.
func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

func ensure() *slog.Logger {
	if log == nil {
		Init()
	}
	return log
}

func Info(msg string, args ...any) {
	ensure().Info(msg, args...)
}

func Infof(format string, v ...any) {
	ensure().Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	ensure().Error(msg, args...)
}

func Errorf(format string, v ...any) {
	ensure().Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	ensure().Debug(msg, args...)
}

func Debugf(format string, v ...any) {
	ensure().Debug(fmt.Sprintf(format, v...))
}

func Fatal(msg string, args ...any) {
	ensure().Error(msg, args...)
	os.Exit(1)
}

func Fatalf(format string, v ...any) {
	ensure().Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

// WithError returns a logger with the error attached as a field.
func WithError(err error) *slog.Logger {
	return ensure().With("error", err)
}

// WithFields returns a logger with the given fields attached.
func WithFields(fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return ensure().With(args...)
}
