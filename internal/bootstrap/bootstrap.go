package bootstrap

import (
	"context"
	"fmt"

	"github.com/rmarchais/facturx-backend/internal/config"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
	"github.com/rmarchais/facturx-backend/internal/core/usecase"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/ai/gemini"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/docprobe"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/export/xlsx"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/queue/nats"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/repository/postgres"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/resilience"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/storage/localfs"
	"github.com/rmarchais/facturx-backend/internal/infrastructure/storage/s3"
	"github.com/rmarchais/facturx-backend/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.InvoiceRepository

	IngestUC    ports.InvoiceIngestor
	QueryUC     ports.InvoiceReader
	DashboardUC *usecase.DashboardUseCase
	VaultUC     *usecase.VaultUseCase
	ManageUC    *usecase.ManageInvoiceUseCase
	AuditUC     *usecase.AuditInvoiceUseCase
	ChatUC      *usecase.AssistantChatUseCase
	TicketUC    *usecase.SupportTicketUseCase
	ProcessUC   ports.InvoiceProcessor
	Notifier    *usecase.NotificationCenter
	Exporter    ports.InvoiceExporter

	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInvoiceRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	ticketRepo := postgres.NewTicketRepository(db)
	chatRepo := postgres.NewChatRepository(db)

	spool, err := localfs.New(cfg.SpoolPath)
	if err != nil {
		return nil, fmt.Errorf("init spool storage: %w", err)
	}

	var storage ports.ObjectStorage = spool
	if cfg.S3Bucket != "" {
		storage, err = s3.New(ctx, s3.Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			Endpoint:       cfg.S3Endpoint,
			PublicBaseURL:  cfg.S3PublicBaseURL,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	geminiClient, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, executor)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	extractor := gemini.NewExtractor(geminiClient)
	auditor := gemini.NewAuditor(geminiClient)
	assistant := gemini.NewAssistant(geminiClient)

	prober := docprobe.New()
	exporter := xlsx.New()
	notifier := usecase.NewNotificationCenter()
	fallback := usecase.NewFallbackSynthesizer()
	workerMetrics := metrics.NewWorkerMetrics(service)

	ingestUC := usecase.NewIngestInvoiceUseCase(repo, storage, spool, queue, prober, notifier)
	processUC := usecase.NewProcessInvoiceUseCase(repo, storage, spool, extractor, fallback, workerMetrics, notifier)
	queryUC := usecase.NewInvoiceQueryUseCase(repo)
	dashboardUC := usecase.NewDashboardUseCase(repo)
	vaultUC := usecase.NewVaultUseCase(repo)
	manageUC := usecase.NewManageInvoiceUseCase(repo)
	auditUC := usecase.NewAuditInvoiceUseCase(repo, storage, spool, auditor)
	chatUC := usecase.NewAssistantChatUseCase(repo, chatRepo, assistant)
	ticketUC := usecase.NewSupportTicketUseCase(ticketRepo, notifier)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:    ingestUC,
		QueryUC:     queryUC,
		DashboardUC: dashboardUC,
		VaultUC:     vaultUC,
		ManageUC:    manageUC,
		AuditUC:     auditUC,
		ChatUC:      chatUC,
		TicketUC:    ticketUC,
		ProcessUC:   processUC,
		Notifier:    notifier,
		Exporter:    exporter,

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
