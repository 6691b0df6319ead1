package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. Records carry the service name plus
// trace and actor ids taken from the context they were logged with.
// LOG_LEVEL overrides the env default (debug in dev, info elsewhere).
func NewLogger(env, service string) *slog.Logger {
	return newLogger(os.Stdout, env, service, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, env, service, levelName string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFor(env, levelName),
	})

	return slog.New(contextHandler{next: handler}).With("service", service)
}

func levelFor(env, name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err == nil {
		return level
	}

	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
