package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"viajjo/internal/amqp"
	"viajjo/internal/cli"
	"viajjo/internal/config"
	applog "viajjo/internal/log"
	"viajjo/internal/metrics"
	"viajjo/internal/sheets"
	gsheet "viajjo/internal/sheets/google"
	memsheet "viajjo/internal/sheets/memory"
	"viajjo/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(applog.ComponentWorker, (*config.Config).ValidateWorker)
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	logger.Info("Starting viajjo-worker")
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	m := metrics.New()
	w := worker.NewExportWorker(exporter, m)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming domain events", "queue", cfg.AMQPQueue)
		return client.Consume(gctx, w.HandleMessage)
	})

	if cfg.WorkerMetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := client.Ping(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		})
		srv := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
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
	}

	return g.Wait()
}

// newExporter appends to Google Sheets when a spreadsheet is configured and
// otherwise keeps rows in process memory for local runs.
func newExporter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sheets.ExpenseExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}
