package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Subsystem identifies the component a logger belongs to.
type Subsystem string

const (
	SubsystemAPI       Subsystem = "api"
	SubsystemCatalog   Subsystem = "catalog"
	SubsystemLifecycle Subsystem = "lifecycle"
	SubsystemGroups    Subsystem = "groups"
	SubsystemRuntime   Subsystem = "runtime"
)

// Config controls logger construction.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
}

// NewConfig builds a logger config from the environment.
// LOG_LEVEL: debug|info|warn|error (default info)
// LOG_FORMAT: json|text (default json)
func NewConfig() Config {
	cfg := Config{
		Level:  slog.LevelInfo,
		Format: "json",
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}

	if f := strings.ToLower(os.Getenv("LOG_FORMAT")); f == "text" {
		cfg.Format = "text"
	}

	return cfg
}

// New creates the root logger.
// When otelHandler is non-nil, records are fanned out to it as well so logs
// reach the OTLP pipeline with trace correlation.
func New(cfg Config, otelHandler slog.Handler) *slog.Logger {
	var base slog.Handler
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "text" {
		base = slog.NewTextHandler(os.Stdout, opts)
	} else {
		base = slog.NewJSONHandler(os.Stdout, opts)
	}

	if otelHandler != nil {
		return slog.New(newFanoutHandler(base, otelHandler))
	}
	return slog.New(base)
}

// NewSubsystemLogger creates a logger tagged with a subsystem attribute.
func NewSubsystemLogger(sub Subsystem, cfg Config, otelHandler slog.Handler) *slog.Logger {
	return New(cfg, otelHandler).With("subsystem", string(sub))
}

type contextKey struct{}

// AddToContext returns a context carrying the logger.
func AddToContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger carried by ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

// FromContextWith returns the context logger tagged with a subsystem attribute.
func FromContextWith(ctx context.Context, sub Subsystem) *slog.Logger {
	return FromContext(ctx).With("subsystem", string(sub))
}
