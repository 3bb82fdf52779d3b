// Package cli holds the start-up steps shared by cmd/viajjo and
// cmd/viajjo-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"viajjo/internal/config"
	applog "viajjo/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs the default logger described by cfg. Invalid level or
// format values fall back to text at info; Validate reports them later.
func SetupLogger(cfg *config.Config, component string) *slog.Logger {
	logger, err := applog.Setup(cfg.LogLevel, cfg.LogFormat, component)
	if err != nil {
		logger = applog.New(applog.Config{
			Level:     slog.LevelInfo,
			Format:    applog.FormatText,
			Component: component,
			Output:    os.Stdout,
		})
		slog.SetDefault(logger)
		logger.Warn("Falling back to default logger", "error", err)
	}
	return logger
}

// LoadConfig loads .env, reads the environment and installs the logger.
// validate is config.Config.Validate or ValidateWorker; a failure exits
// the process.
func LoadConfig(component string, validate func(*config.Config) error) (*config.Config, *slog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}
