package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

func TestFallbackSummaryBounds(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	f := NewSeededFallbackSynthesizer(42, now)

	for i := 0; i < 200; i++ {
		summary := f.Summary()

		if summary.Source != domain.SourceFallback {
			t.Fatalf("source = %q, want fallback", summary.Source)
		}
		if summary.Compliance < 40 || summary.Compliance > 100 {
			t.Fatalf("compliance = %d, want within [40,100]", summary.Compliance)
		}
		total := ParseAmount(summary.TotalTTC)
		if total < 10 || total > 2010 {
			t.Fatalf("total = %v, want within [10,2010]", total)
		}
		tax := ParseAmount(summary.Tax)
		if tax <= 0 || tax > total {
			t.Fatalf("tax = %v out of range for total %v", tax, total)
		}
		if !strings.HasPrefix(summary.SIRET, "123 456 789 ") {
			t.Fatalf("siret = %q, want fixed prefix", summary.SIRET)
		}
		if summary.Vendor == "" || summary.Category == "" {
			t.Fatalf("vendor/category must be set, got %+v", summary)
		}
		if _, ok := ParseFrDate(summary.Date); !ok {
			t.Fatalf("date = %q does not parse", summary.Date)
		}
		if summary.PaymentStatus != domain.PaymentToValidate {
			t.Fatalf("payment status = %q, want to_validate", summary.PaymentStatus)
		}
	}
}

func TestFallbackSummaryDateWithinLast30Days(t *testing.T) {
	base := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	f := NewSeededFallbackSynthesizer(7, func() time.Time { return base })

	for i := 0; i < 50; i++ {
		summary := f.Summary()
		date, ok := ParseFrDate(summary.Date)
		if !ok {
			t.Fatalf("date %q does not parse", summary.Date)
		}
		if date.After(base) || date.Before(base.AddDate(0, 0, -30)) {
			t.Fatalf("date %v outside the last 30 days of %v", date, base)
		}
	}
}
