package usecase

import (
	"context"
	"testing"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

func TestGetByIDEnforcesOwnership(t *testing.T) {
	repo := newInvoiceRepoFake(&domain.Invoice{ID: "inv-1", UserID: "owner"})
	uc := NewInvoiceQueryUseCase(repo)

	if _, err := uc.GetByID(context.Background(), "owner", "inv-1"); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	_, err := uc.GetByID(context.Background(), "intruder", "inv-1")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("error = %v, want not-found for foreign invoice", err)
	}
}

func TestListSearchMatchesNameVendorAndTotal(t *testing.T) {
	repo := newInvoiceRepoFake(
		completedInvoice("a", "EDF France", "Énergie", "145,50 €", "01/03/2025", domain.PaymentPaid, 90),
		completedInvoice("b", "AWS", "Cloud & IT", "300,00 €", "01/03/2025", domain.PaymentPaid, 90),
	)
	uc := NewInvoiceQueryUseCase(repo)

	for _, needle := range []string{"edf", "a.pdf", "145,50"} {
		out, err := uc.List(context.Background(), "u1", domain.InvoiceQuery{Search: needle})
		if err != nil {
			t.Fatalf("List(%q) error = %v", needle, err)
		}
		if len(out) != 1 || out[0].ID != "a" {
			t.Fatalf("List(%q) = %v, want only invoice a", needle, out)
		}
	}
}

func TestListFiltersByPaymentStatus(t *testing.T) {
	repo := newInvoiceRepoFake(
		completedInvoice("a", "EDF France", "Énergie", "100,00 €", "01/03/2025", domain.PaymentPaid, 90),
		completedInvoice("b", "AWS", "Cloud & IT", "200,00 €", "01/03/2025", domain.PaymentToValidate, 90),
		&domain.Invoice{ID: "c", UserID: "u1", Name: "c.pdf", Status: domain.StatusPending},
	)
	uc := NewInvoiceQueryUseCase(repo)

	out, err := uc.List(context.Background(), "u1", domain.InvoiceQuery{PaymentStatus: domain.PaymentPaid})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Fatalf("List() = %v, want only the paid invoice", out)
	}
}

func TestListSortsByTotalDescending(t *testing.T) {
	repo := newInvoiceRepoFake(
		completedInvoice("small", "A", "Services", "10,00 €", "01/03/2025", domain.PaymentPaid, 90),
		completedInvoice("big", "B", "Services", "1 000,00 €", "01/03/2025", domain.PaymentPaid, 90),
		completedInvoice("mid", "C", "Services", "500,00 €", "01/03/2025", domain.PaymentPaid, 90),
	)
	uc := NewInvoiceQueryUseCase(repo)

	out, err := uc.List(context.Background(), "u1", domain.InvoiceQuery{SortBy: domain.SortByTotal, Descending: true})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if out[0].ID != "big" || out[1].ID != "mid" || out[2].ID != "small" {
		t.Fatalf("order = %s,%s,%s, want big,mid,small", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestListSortsByDate(t *testing.T) {
	repo := newInvoiceRepoFake(
		completedInvoice("mar", "A", "Services", "10,00 €", "15/03/2025", domain.PaymentPaid, 90),
		completedInvoice("jan", "B", "Services", "10,00 €", "15/01/2025", domain.PaymentPaid, 90),
	)
	uc := NewInvoiceQueryUseCase(repo)

	out, err := uc.List(context.Background(), "u1", domain.InvoiceQuery{SortBy: domain.SortByDate})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if out[0].ID != "jan" || out[1].ID != "mar" {
		t.Fatalf("order = %s,%s, want jan,mar", out[0].ID, out[1].ID)
	}
}
