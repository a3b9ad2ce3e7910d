package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

const unknownVendorLabel = "Fournisseur Inconnu"

// topVendorCount bounds the by-vendor breakdown to the largest spenders.
const topVendorCount = 8

type DashboardUseCase struct {
	repo ports.InvoiceRepository
	now  func() time.Time
}

func NewDashboardUseCase(repo ports.InvoiceRepository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, now: time.Now}
}

// Stats aggregates the user's completed invoices inside the window in one
// pass: outstanding total, payment-status counts, average compliance and
// the per-category / per-vendor sums.
func (uc *DashboardUseCase) Stats(ctx context.Context, userID string, window domain.Window) (domain.DashboardStats, error) {
	invoices, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("list invoices: %w", err)
	}

	stats := domain.DashboardStats{
		Categories: []domain.CategoryTotal{},
		Vendors:    []domain.VendorTotal{},
	}
	byCategory := map[string]float64{}
	byVendor := map[string]float64{}
	complianceSum := 0

	for i := range invoices {
		inv := &invoices[i]
		if inv.Status != domain.StatusCompleted || inv.Summary == nil {
			continue
		}
		if !uc.inWindow(inv, window) {
			continue
		}

		total := ParseAmount(inv.Summary.TotalTTC)
		stats.InvoiceCount++
		stats.TotalOutstanding += total
		complianceSum += inv.Summary.Compliance

		switch inv.Summary.PaymentStatus {
		case domain.PaymentToValidate:
			stats.ToValidate++
		case domain.PaymentPaid:
			stats.Paid++
		}

		category := inv.Summary.Category
		if category == "" {
			category = "Autres"
		}
		byCategory[category] += total

		vendor := inv.Summary.Vendor
		if vendor == "" {
			vendor = unknownVendorLabel
		}
		byVendor[vendor] += total
	}

	if stats.InvoiceCount > 0 {
		avg := float64(complianceSum) / float64(stats.InvoiceCount)
		stats.AvgCompliance = math.Round(avg*10) / 10
	}

	stats.Categories = sortedTotals(byCategory, func(name string, total float64) domain.CategoryTotal {
		return domain.CategoryTotal{Category: name, Total: total}
	})
	vendors := sortedTotals(byVendor, func(name string, total float64) domain.VendorTotal {
		return domain.VendorTotal{Vendor: name, Total: total}
	})
	if len(vendors) > topVendorCount {
		vendors = vendors[:topVendorCount]
	}
	stats.Vendors = vendors

	return stats, nil
}

func (uc *DashboardUseCase) inWindow(inv *domain.Invoice, window domain.Window) bool {
	date := invoiceDate(inv)
	now := uc.now()

	switch window.Mode {
	case domain.WindowMonth:
		return date.Year() == now.Year() && date.Month() == now.Month()
	case domain.WindowQuarter:
		return date.Year() == now.Year() && quarterOf(date.Month()) == quarterOf(now.Month())
	case domain.WindowRange:
		if !window.From.IsZero() && date.Before(truncateDay(window.From)) {
			return false
		}
		if !window.To.IsZero() && date.After(endOfDay(window.To)) {
			return false
		}
		return true
	default:
		return true
	}
}

// invoiceDate reads the summary's display date, falling back to the upload
// time when the string does not parse.
func invoiceDate(inv *domain.Invoice) time.Time {
	if inv.Summary != nil {
		if t, ok := ParseFrDate(inv.Summary.Date); ok {
			return t
		}
	}
	return inv.CreatedAt
}

func quarterOf(m time.Month) int {
	return (int(m) - 1) / 3
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// sortedTotals flattens a name→sum map into a slice ordered by descending
// total, names ascending on ties so the order is stable.
func sortedTotals[T any](m map[string]float64, build func(string, float64) T) []T {
	type entry struct {
		name  string
		total float64
	}
	entries := make([]entry, 0, len(m))
	for name, total := range m {
		entries = append(entries, entry{name, total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].total != entries[j].total {
			return entries[i].total > entries[j].total
		}
		return entries[i].name < entries[j].name
	})

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		out = append(out, build(e.name, e.total))
	}
	return out
}
