package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/bootstrap"
	"github.com/kirillkom/invoice-compliance/internal/config"
	"github.com/kirillkom/invoice-compliance/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("invoice-compliance-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.WorkerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	batchTimeout := time.Duration(cfg.BatchTimeoutSecs) * time.Second
	logger.Info("worker subscribed", "subject", cfg.NATSSubject, "workers", cfg.BatchWorkers)

	err = app.Queue.SubscribeBatchSubmitted(ctx, func(handlerCtx context.Context, batchID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, batchTimeout)
		defer cancel()

		report, err := app.BatchUC.ProcessBatch(processCtx, batchID)
		app.WorkerMetrics.FinishBatch(err)
		if err != nil {
			return err
		}
		logger.Info("batch processed",
			"batch_id", batchID,
			"total", report.Summary.Total,
			"compliant", report.Summary.Compliant,
			"flagged", report.Summary.Flagged,
			"unprocessed", report.Summary.Unprocessed,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
