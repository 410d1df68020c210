package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func New(app, env string) *slog.Logger {
	return NewWithLevel(app, env, "info")
}

func NewWithLevel(app, env, level string) *slog.Logger {
	return NewWriter(os.Stdout, app, env, level)
}

func NewWriter(w io.Writer, app, env, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	return slog.New(h).With(
		slog.String("app", app),
		slog.String("env", env),
	)
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
