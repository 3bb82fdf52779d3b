package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"viajjo/internal/amqp"
	"viajjo/internal/auth"
	"viajjo/internal/backend"
	"viajjo/internal/cache"
	"viajjo/internal/cli"
	"viajjo/internal/config"
	"viajjo/internal/core"
	apphttp "viajjo/internal/http"
	applog "viajjo/internal/log"
	"viajjo/internal/metrics"
	"viajjo/internal/report"
	"viajjo/internal/services"
	"viajjo/internal/tracker"
)

func main() {
	cfg, logger := cli.LoadConfig(applog.ComponentApp, (*config.Config).Validate)
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.Open(ctx, bc, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	m := metrics.New()
	checks := map[string]apphttp.Checker{"store": store.Store.Ping}

	reportCache, cacheManager := newReportCache(cfg, checks, logger)
	if cacheManager != nil {
		defer cacheManager.Stop()
	}
	reports := report.NewGenerator(reportCache, report.WithRecorder(m))

	opts := []services.Option{services.WithInvalidator(reports), services.WithRecorder(m)}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are best-effort; the tracker works without them.
			logger.Error("Failed to connect to AMQP, domain events disabled", "error", err)
		} else {
			defer client.Close()
			opts = append(opts, services.WithPublisher(client))
			checks["amqp"] = func(context.Context) error { return client.Ping() }
			logger.Info("Publishing domain events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	repo := tracker.NewRepository(store.Store)
	secret, err := sessionSecret(cfg, logger)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(repo, store.Store, auth.NewJWTManager(secret, cfg.SessionTTL))

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:               authSvc,
		Tracker:            services.NewTrackerService(repo, opts...),
		Reports:            reports,
		Distances:          core.DefaultDistanceTable(),
		Metrics:            m,
		Checks:             checks,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting viajjo server", "port", cfg.Port, "backend", cfg.DataBackend, "cache", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newReportCache picks the report cache backend. The manager is nil for
// memcache, which expires entries itself.
func newReportCache(cfg *config.Config, checks map[string]apphttp.Checker, logger *slog.Logger) (cache.Cache[report.Report], *cache.Manager) {
	if cfg.CacheBackend == "memcache" {
		mc := cache.NewMemcacheCache[report.Report](cfg.MemcacheHosts, "viajjo:", cfg.CacheTTL)
		checks["memcache"] = func(context.Context) error { return mc.Ping() }
		logger.Info("Using memcache report cache", "hosts", cfg.MemcacheHosts)
		return mc, nil
	}
	lru := cache.NewLRUCache[report.Report](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(cfg.CacheTTL)
	return lru, manager
}

// sessionSecret returns the configured secret. A memory backend without one
// gets a random secret; sessions end with the process anyway.
func sessionSecret(cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	logger.Warn("SESSION_SECRET not set, using a random secret")
	return hex.EncodeToString(b), nil
}
