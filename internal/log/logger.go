// Package log configures the process-wide slog logger and carries
// request-scoped loggers through contexts.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTint Format = "tint"
)

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Format    Format
	Component string
	Output    io.Writer
}

// DefaultConfig returns the text handler at info level on stdout.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    FormatText,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// ParseFormat maps text, json or tint to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatTint:
		return f, nil
	default:
		return FormatText, fmt.Errorf("invalid log format %q", s)
	}
}

// NewHandler builds the handler for cfg.
func NewHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	switch cfg.Format {
	case FormatJSON:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	case FormatTint:
		return tint.NewHandler(out, &tint.Options{Level: cfg.Level, TimeFormat: time.Kitchen})
	default:
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	}
}

// New creates a logger tagged with the configured component.
func New(cfg Config) *slog.Logger {
	logger := slog.New(NewHandler(cfg))
	if cfg.Component != "" {
		logger = logger.With(FieldComponent, cfg.Component)
	}
	return logger
}

// Setup parses level and format, builds the logger and installs it as the
// slog default.
func Setup(level, format string, component string) (*slog.Logger, error) {
	cfg := DefaultConfig()
	cfg.Component = component

	var err error
	if cfg.Level, err = ParseLevel(level); err != nil {
		return nil, err
	}
	if cfg.Format, err = ParseFormat(format); err != nil {
		return nil, err
	}

	logger := New(cfg)
	slog.SetDefault(logger)
	return logger, nil
}

// WithComponent returns l tagged with a component name.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With(FieldComponent, component)
}
