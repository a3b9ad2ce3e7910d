package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
	"github.com/rmarchais/facturx-backend/internal/validation"
)

// ManageInvoiceUseCase covers the reviewer actions on completed invoices:
// bulk payment-status moves and manual field corrections.
type ManageInvoiceUseCase struct {
	repo ports.InvoiceRepository
}

func NewManageInvoiceUseCase(repo ports.InvoiceRepository) *ManageInvoiceUseCase {
	return &ManageInvoiceUseCase{repo: repo}
}

// UpdateStatuses moves the given invoices to a new payment status in one
// statement. Returns how many rows actually changed.
func (uc *ManageInvoiceUseCase) UpdateStatuses(ctx context.Context, userID string, ids []string, status domain.PaymentStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "update statuses", errors.New("empty id list"))
	}
	switch status {
	case domain.PaymentDraft, domain.PaymentToValidate, domain.PaymentValidated, domain.PaymentPaid:
	default:
		return 0, domain.WrapError(domain.ErrInvalidInput, "update statuses", fmt.Errorf("unknown payment status %q", status))
	}

	n, err := uc.repo.UpdatePaymentStatus(ctx, userID, ids, status)
	if err != nil {
		return 0, fmt.Errorf("update payment status: %w", err)
	}
	return n, nil
}

// SaveValidation applies a reviewer's corrections to a completed summary.
// Amount fields are re-normalized on the way in and the fraud check is
// recomputed against the corrected identifiers.
func (uc *ManageInvoiceUseCase) SaveValidation(ctx context.Context, userID, invoiceID string, edit domain.ValidationEdit) (*domain.Invoice, error) {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice by id: %w", err)
	}
	if inv.UserID != userID {
		return nil, domain.WrapError(domain.ErrInvoiceNotFound, "save validation", fmt.Errorf("invoice %s not owned by user", invoiceID))
	}
	if inv.Status != domain.StatusCompleted || inv.Summary == nil {
		return nil, domain.WrapError(domain.ErrConflict, "save validation", fmt.Errorf("invoice %s not completed", invoiceID))
	}

	if err := validateEdit(edit); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save validation", err)
	}

	summary := *inv.Summary
	if edit.Vendor != "" {
		summary.Vendor = edit.Vendor
	}
	if edit.Date != "" {
		summary.Date = edit.Date
	}
	if edit.TotalTTC != "" {
		summary.TotalTTC = NormalizeAmount(edit.TotalTTC)
	}
	if edit.Tax != "" {
		summary.Tax = NormalizeAmount(edit.Tax)
	}
	if edit.SIRET != "" {
		summary.SIRET = edit.SIRET
	}
	if edit.IBAN != "" {
		summary.IBAN = edit.IBAN
	}
	if edit.Category != "" {
		summary.Category = edit.Category
	}
	if edit.PaymentStatus != "" {
		summary.PaymentStatus = edit.PaymentStatus
	}

	if summary.FraudCheck != nil {
		summary.FraudCheck.SiretValid = summary.SIRET != ""
		summary.FraudCheck.IbanTrusted = summary.IBAN != ""
	}

	if err := uc.repo.SaveSummary(ctx, invoiceID, summary); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	inv.Summary = &summary
	return inv, nil
}

func validateEdit(edit domain.ValidationEdit) error {
	v := validation.Violations{}
	if edit.SIRET != "" {
		validation.SIRET("siret", edit.SIRET, v)
	}
	if edit.Date != "" {
		if _, ok := ParseFrDate(edit.Date); !ok {
			v["date"] = "invalid_date"
		}
	}
	if edit.PaymentStatus != "" {
		validation.OneOf("paymentStatus", string(edit.PaymentStatus), []string{
			string(domain.PaymentDraft),
			string(domain.PaymentToValidate),
			string(domain.PaymentValidated),
			string(domain.PaymentPaid),
		}, v)
	}
	if v.Empty() {
		return nil
	}
	return v
}
