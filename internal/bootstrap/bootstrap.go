package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/invoice-compliance/internal/config"
	"github.com/kirillkom/invoice-compliance/internal/core/domain"
	"github.com/kirillkom/invoice-compliance/internal/core/extraction"
	"github.com/kirillkom/invoice-compliance/internal/core/ports"
	"github.com/kirillkom/invoice-compliance/internal/core/ruleset"
	"github.com/kirillkom/invoice-compliance/internal/core/scoring"
	"github.com/kirillkom/invoice-compliance/internal/core/usecase"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/export"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/extractor/pdfdoc"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/queue/nats"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/resilience"
	"github.com/kirillkom/invoice-compliance/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/invoice-compliance/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Repo     ports.InvoiceRepository
	Reports  ports.ReportRepository
	Exporter ports.ReportExporter

	IngestUC ports.BatchIngestor
	BatchUC  ports.BatchProcessor

	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInvoiceRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	reports := postgres.NewReportRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	rulesCfg, err := ruleset.LoadFile(cfg.RulesetPath)
	if err != nil {
		return nil, fmt.Errorf("load ruleset: %w", err)
	}
	rules, err := ruleset.Build(rulesCfg, time.Now)
	if err != nil {
		return nil, fmt.Errorf("build ruleset: %w", err)
	}
	engine := ruleset.NewEngine(rules, logger)
	scorer := scoring.NewScorer(rules, rulesCfg.LowConfidenceThreshold)

	var semantic ports.SemanticExtractor
	if cfg.SemanticEnabled {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaModel)
		semantic = ollama.NewResilientExtractor(client, executor)
	}
	fields := extraction.New(semantic, extraction.Config{
		SemanticTimeout: time.Duration(cfg.SemanticTimeoutSecs) * time.Second,
		SemanticRate:    cfg.SemanticRatePerSec,
	}, logger)

	extractors := map[domain.DocumentFormat]ports.TextExtractor{
		domain.FormatText: plaintext.New(storage),
		domain.FormatPDF:  pdfdoc.New(storage),
	}

	workerMetrics := metrics.NewWorkerMetrics("invoice-compliance-worker")

	ingestUC := usecase.NewSubmitBatchUseCase(repo, storage, queue, cfg.MaxBatchFiles)
	processUC := usecase.NewProcessInvoiceUseCase(repo, reports, extractors, fields, engine, scorer)
	batchUC := usecase.NewProcessBatchUseCase(repo, reports, processUC, cfg.BatchWorkers, workerMetrics, logger)

	return &App{
		Config: cfg,

		Queue:    queue,
		Repo:     repo,
		Reports:  reports,
		Exporter: export.NewExporter(),

		IngestUC: ingestUC,
		BatchUC:  batchUC,

		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
