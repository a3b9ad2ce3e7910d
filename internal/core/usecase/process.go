package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

// ProcessInvoiceUseCase runs the extraction pipeline for a single queued
// invoice. The extraction model is untrusted: any failure on that leg
// degrades to a synthesized summary and the invoice still terminates at
// completed. Only repository failures propagate, so the queue redelivers.
type ProcessInvoiceUseCase struct {
	repo      ports.InvoiceRepository
	storage   ports.ObjectStorage
	spool     ports.ObjectStorage
	extractor ports.InvoiceExtractor
	fallback  *FallbackSynthesizer
	metrics   ports.PipelineMetrics
	notifier  *NotificationCenter
	now       func() time.Time
}

func NewProcessInvoiceUseCase(
	repo ports.InvoiceRepository,
	storage ports.ObjectStorage,
	spool ports.ObjectStorage,
	extractor ports.InvoiceExtractor,
	fallback *FallbackSynthesizer,
	metrics ports.PipelineMetrics,
	notifier *NotificationCenter,
) *ProcessInvoiceUseCase {
	return &ProcessInvoiceUseCase{
		repo:      repo,
		storage:   storage,
		spool:     spool,
		extractor: extractor,
		fallback:  fallback,
		metrics:   metrics,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (uc *ProcessInvoiceUseCase) ProcessByID(ctx context.Context, invoiceID string) error {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("fetch invoice by id: %w", err)
	}
	if inv.Status == domain.StatusCompleted {
		return domain.WrapError(domain.ErrConflict, "process invoice", fmt.Errorf("invoice %s already completed", invoiceID))
	}

	if err := uc.repo.UpdateStatus(ctx, invoiceID, domain.StatusProcessing); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	summary := uc.extract(ctx, inv)

	if err := uc.repo.SaveSummary(ctx, invoiceID, summary); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, invoiceID, domain.StatusCompleted); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.ObserveCompliance(summary.Compliance)
	}
	uc.notify(inv, summary)
	return nil
}

func (uc *ProcessInvoiceUseCase) notify(inv *domain.Invoice, summary domain.InvoiceSummary) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.Push(inv.UserID,
		"Analyse terminée",
		fmt.Sprintf("%s analysé: %s chez %s.", inv.Name, summary.TotalTTC, summary.Vendor),
		domain.NotifSuccess,
		inv.ID,
	)
	if summary.Compliance < criticalComplianceThreshold {
		uc.notifier.Push(inv.UserID,
			"Conformité faible",
			fmt.Sprintf("%s a un score de conformité de %d%%.", inv.Name, summary.Compliance),
			domain.NotifWarning,
			inv.ID,
		)
	}
}

// extract produces the normalized summary for an invoice. It never fails:
// missing bytes, a model error or an unparseable payload all land on the
// fallback synthesizer with the reason recorded on the summary.
func (uc *ProcessInvoiceUseCase) extract(ctx context.Context, inv *domain.Invoice) domain.InvoiceSummary {
	started := uc.now()

	data, spooled, err := readStoredDocument(ctx, uc.storage, uc.spool, inv.StorageKey)
	if err != nil {
		return uc.degrade(inv, started, fmt.Errorf("open document: %w", err))
	}
	if spooled {
		uc.promote(ctx, inv, data)
	}

	extraction, err := uc.extractor.Extract(ctx, data, inv.MimeType)
	if err != nil {
		return uc.degrade(inv, started, fmt.Errorf("vision extraction: %w", err))
	}

	summary := NormalizeSummary(extraction, uc.now())
	summary.Source = domain.SourceAI
	if uc.metrics != nil {
		uc.metrics.ObserveExtraction(domain.SourceAI, uc.now().Sub(started).Seconds())
	}
	return summary
}

// promote re-uploads spool-only bytes to primary storage and swaps the
// invoice's placeholder URL for the primary one. Best effort: the pipeline
// already has the bytes in hand, so failures only log.
func (uc *ProcessInvoiceUseCase) promote(ctx context.Context, inv *domain.Invoice, data []byte) {
	url, err := uc.storage.Save(ctx, inv.StorageKey, bytes.NewReader(data))
	if err != nil {
		slog.Warn("storage_promotion_failed",
			"invoice_id", inv.ID,
			"storage_key", inv.StorageKey,
			"error", err,
		)
		return
	}
	if err := uc.repo.UpdateFileURL(ctx, inv.ID, url); err != nil {
		slog.Warn("file_url_update_failed",
			"invoice_id", inv.ID,
			"error", err,
		)
		return
	}
	inv.FileURL = url
}

func (uc *ProcessInvoiceUseCase) degrade(inv *domain.Invoice, started time.Time, cause error) domain.InvoiceSummary {
	slog.Warn("extraction_degraded",
		"invoice_id", inv.ID,
		"name", inv.Name,
		"error", cause,
	)
	summary := uc.fallback.Summary()
	summary.DegradedReason = cause.Error()
	if uc.metrics != nil {
		uc.metrics.ObserveExtraction(domain.SourceFallback, uc.now().Sub(started).Seconds())
	}
	return summary
}
