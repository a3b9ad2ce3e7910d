package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

// InvoiceQueryUseCase is the read model for invoice listings: ownership
// checks, free-text search, per-column filters and ordering happen here,
// on top of the repository's raw user-scoped list.
type InvoiceQueryUseCase struct {
	repo ports.InvoiceRepository
}

func NewInvoiceQueryUseCase(repo ports.InvoiceRepository) *InvoiceQueryUseCase {
	return &InvoiceQueryUseCase{repo: repo}
}

func (uc *InvoiceQueryUseCase) GetByID(ctx context.Context, userID, id string) (*domain.Invoice, error) {
	inv, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice by id: %w", err)
	}
	if inv.UserID != userID {
		return nil, domain.WrapError(domain.ErrInvoiceNotFound, "fetch invoice", fmt.Errorf("invoice %s not owned by user", id))
	}
	return inv, nil
}

func (uc *InvoiceQueryUseCase) ListByUser(ctx context.Context, userID string) ([]domain.Invoice, error) {
	invoices, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// List applies the query's search, filters and sort to the user's invoices.
func (uc *InvoiceQueryUseCase) List(ctx context.Context, userID string, q domain.InvoiceQuery) ([]domain.Invoice, error) {
	invoices, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	filtered := invoices[:0:0]
	for i := range invoices {
		if matchesQuery(&invoices[i], q) {
			filtered = append(filtered, invoices[i])
		}
	}
	sortInvoices(filtered, q.SortBy, q.Descending)
	return filtered, nil
}

func matchesQuery(inv *domain.Invoice, q domain.InvoiceQuery) bool {
	vendor, total := "", ""
	if inv.Summary != nil {
		vendor = inv.Summary.Vendor
		total = inv.Summary.TotalTTC
	}

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(inv.Name), needle) &&
			!strings.Contains(strings.ToLower(vendor), needle) &&
			!strings.Contains(strings.ToLower(total), needle) {
			return false
		}
	}
	if q.Name != "" && !strings.Contains(strings.ToLower(inv.Name), strings.ToLower(q.Name)) {
		return false
	}
	if q.Vendor != "" && !strings.Contains(strings.ToLower(vendor), strings.ToLower(q.Vendor)) {
		return false
	}
	if q.PaymentStatus != "" {
		if inv.Summary == nil || inv.Summary.PaymentStatus != q.PaymentStatus {
			return false
		}
	}
	return true
}

func sortInvoices(invoices []domain.Invoice, field domain.SortField, descending bool) {
	if field == "" {
		return
	}
	less := func(a, b *domain.Invoice) bool {
		switch field {
		case domain.SortByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case domain.SortByVendor:
			return strings.ToLower(summaryVendor(a)) < strings.ToLower(summaryVendor(b))
		case domain.SortByTotal:
			return summaryTotal(a) < summaryTotal(b)
		case domain.SortByDate:
			return invoiceDate(a).Before(invoiceDate(b))
		default:
			return false
		}
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		if descending {
			return less(&invoices[j], &invoices[i])
		}
		return less(&invoices[i], &invoices[j])
	})
}

func summaryVendor(inv *domain.Invoice) string {
	if inv.Summary == nil {
		return ""
	}
	return inv.Summary.Vendor
}

func summaryTotal(inv *domain.Invoice) float64 {
	if inv.Summary == nil {
		return 0
	}
	return ParseAmount(inv.Summary.TotalTTC)
}
