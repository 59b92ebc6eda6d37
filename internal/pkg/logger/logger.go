package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/GoPolymarket/schemascope/internal/reqctx"
)

var (
	globalLogger *slog.Logger
	once         sync.Once
)

func Init(level string) {
	InitWithWriter(level, os.Stdout)
}

// InitWithWriter is Init with an explicit destination. Only the first call
// of either function takes effect.
func InitWithWriter(level string, w io.Writer) {
	once.Do(func() {
		globalLogger = New(level, w)
		slog.SetDefault(globalLogger)
	})
}

// New builds a JSON logger without touching the global one.
func New(level string, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Get returns the global logger instance
func Get() *slog.Logger {
	if globalLogger == nil {
		Init("info")
	}
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// Ctx returns the global logger tagged with the request id active in ctx.
func Ctx(ctx context.Context) *slog.Logger {
	if id := reqctx.RequestID(ctx); id != "" {
		return Get().With("request_id", id)
	}
	return Get()
}

// Helper functions for quick logging
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

func LogError(ctx context.Context, err error, msg string, args ...any) {
	if err == nil {
		return
	}
	args = append(args, slog.String("error", err.Error()))
	Ctx(ctx).ErrorContext(ctx, msg, args...)
}
