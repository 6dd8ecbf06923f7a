package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// Config selects the process-wide logging behaviour. Every line carries the
// service identity fields so multi-service log streams stay attributable.
type Config struct {
	Service string // logical service name, e.g. "presence"
	Version string // build version stamped into each line
	Env     string // deployment environment: dev, staging, prod
	Level   string // minimum level: debug, info, warn, error
	Format  string // output encoding: json (default) or text
}

// New builds the root logger and installs it as the slog default, so code
// that reaches for slog.Default (or a context without a request logger)
// still emits attributable lines.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		// Source locations are only worth the noise during development
		AddSource: cfg.Env == "dev",
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
