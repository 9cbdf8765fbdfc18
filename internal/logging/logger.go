package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide JSON logger and installs it as the
// slog default.
func NewLogger(service, environment string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	logger := slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", environment),
		slog.Int("pid", os.Getpid()),
	)

	slog.SetDefault(logger)
	return logger
}
