package usecase

import (
	"context"
	"fmt"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

// AuditInvoiceUseCase runs the on-demand compliance audit over a stored
// document. Unlike extraction there is no fallback here: a model failure is
// surfaced to the caller as a temporary error.
type AuditInvoiceUseCase struct {
	repo    ports.InvoiceRepository
	storage ports.ObjectStorage
	spool   ports.ObjectStorage
	auditor ports.ComplianceAuditor
}

func NewAuditInvoiceUseCase(
	repo ports.InvoiceRepository,
	storage ports.ObjectStorage,
	spool ports.ObjectStorage,
	auditor ports.ComplianceAuditor,
) *AuditInvoiceUseCase {
	return &AuditInvoiceUseCase{
		repo:    repo,
		storage: storage,
		spool:   spool,
		auditor: auditor,
	}
}

func (uc *AuditInvoiceUseCase) Audit(ctx context.Context, userID, invoiceID string) (domain.AuditReport, error) {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return domain.AuditReport{}, fmt.Errorf("fetch invoice by id: %w", err)
	}
	if inv.UserID != userID {
		return domain.AuditReport{}, domain.WrapError(domain.ErrInvoiceNotFound, "audit invoice", fmt.Errorf("invoice %s not owned by user", invoiceID))
	}
	if inv.Status != domain.StatusCompleted {
		return domain.AuditReport{}, domain.WrapError(domain.ErrInvalidInput, "audit invoice", fmt.Errorf("invoice %s not completed", invoiceID))
	}

	data, _, err := readStoredDocument(ctx, uc.storage, uc.spool, inv.StorageKey)
	if err != nil {
		return domain.AuditReport{}, fmt.Errorf("open document: %w", err)
	}

	report, err := uc.auditor.Audit(ctx, data, inv.MimeType)
	if err != nil {
		return domain.AuditReport{}, domain.WrapError(domain.ErrTemporary, "compliance audit", err)
	}
	return report, nil
}
