package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

func newAuditFixture(auditor *auditorFake) (*AuditInvoiceUseCase, *invoiceRepoFake) {
	repo := newInvoiceRepoFake(&domain.Invoice{
		ID:         "inv-1",
		UserID:     "u1",
		Status:     domain.StatusCompleted,
		StorageKey: "u1/1_f.pdf",
		Summary:    &domain.InvoiceSummary{Vendor: "EDF France"},
	})
	storage := newStorageFake()
	storage.objects["u1/1_f.pdf"] = []byte("%PDF-1.4")
	return NewAuditInvoiceUseCase(repo, storage, newStorageFake(), auditor), repo
}

func TestAuditReturnsReport(t *testing.T) {
	uc, _ := newAuditFixture(&auditorFake{report: domain.AuditReport{
		GlobalScore: 88,
		RiskLevel:   domain.RiskLow,
	}})

	report, err := uc.Audit(context.Background(), "u1", "inv-1")
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if report.GlobalScore != 88 || report.RiskLevel != domain.RiskLow {
		t.Fatalf("report = %+v", report)
	}
}

func TestAuditSurfacesModelFailure(t *testing.T) {
	uc, _ := newAuditFixture(&auditorFake{err: errors.New("quota exceeded")})

	_, err := uc.Audit(context.Background(), "u1", "inv-1")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("error = %v, want temporary kind surfaced", err)
	}
}

func TestAuditRejectsForeignInvoice(t *testing.T) {
	uc, _ := newAuditFixture(&auditorFake{})

	_, err := uc.Audit(context.Background(), "intruder", "inv-1")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("error = %v, want not-found", err)
	}
}

func TestAuditRejectsUnprocessedInvoice(t *testing.T) {
	uc, repo := newAuditFixture(&auditorFake{})
	repo.invoices["inv-1"].Status = domain.StatusPending

	_, err := uc.Audit(context.Background(), "u1", "inv-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
}
