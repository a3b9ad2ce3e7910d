package usecase

import (
	"context"
	"fmt"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

// criticalComplianceThreshold is the score below which a document shows up
// in the vault's critical filter.
const criticalComplianceThreshold = 60

// VaultUseCase serves the archived-documents view: only completed invoices,
// narrowed by payment status or compliance criticality.
type VaultUseCase struct {
	repo ports.InvoiceRepository
}

func NewVaultUseCase(repo ports.InvoiceRepository) *VaultUseCase {
	return &VaultUseCase{repo: repo}
}

func (uc *VaultUseCase) List(ctx context.Context, userID string, filter domain.VaultFilter) ([]domain.Invoice, error) {
	invoices, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	out := invoices[:0:0]
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status != domain.StatusCompleted {
			continue
		}
		if filter.PaymentStatus != "" {
			if inv.Summary == nil || inv.Summary.PaymentStatus != filter.PaymentStatus {
				continue
			}
		}
		if filter.Critical && vaultCompliance(inv) >= criticalComplianceThreshold {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

// vaultCompliance reads the summary score; a document without one is
// treated as fully compliant so it never surfaces as critical.
func vaultCompliance(inv *domain.Invoice) int {
	if inv.Summary == nil {
		return 100
	}
	return inv.Summary.Compliance
}
