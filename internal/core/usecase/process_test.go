package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

func newProcessFixture(t *testing.T, extractor *extractorFake) (*ProcessInvoiceUseCase, *invoiceRepoFake, *storageFake, *metricsFake) {
	t.Helper()
	repo := newInvoiceRepoFake(&domain.Invoice{
		ID:         "inv-1",
		UserID:     "u1",
		Name:       "edf.pdf",
		MimeType:   "application/pdf",
		Status:     domain.StatusPending,
		StorageKey: "u1/1_edf.pdf",
	})
	storage := newStorageFake()
	storage.objects["u1/1_edf.pdf"] = []byte("%PDF-1.4")
	metrics := newMetricsFake()

	fallback := NewSeededFallbackSynthesizer(1, time.Now)
	uc := NewProcessInvoiceUseCase(repo, storage, newStorageFake(), extractor, fallback, metrics, nil)
	return uc, repo, storage, metrics
}

func TestProcessByIDSuccess(t *testing.T) {
	comp := 92.0
	uc, repo, _, metrics := newProcessFixture(t, &extractorFake{extraction: domain.Extraction{
		Vendor:     "EDF France",
		Date:       "10/03/2025",
		TotalTTC:   "145.50",
		Tax:        "24.25",
		SIRET:      "552 081 317 66522",
		Category:   "Énergie",
		Compliance: &comp,
	}})

	if err := uc.ProcessByID(context.Background(), "inv-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	calls := repo.statusCalls["inv-1"]
	if len(calls) != 2 || calls[0] != domain.StatusProcessing || calls[1] != domain.StatusCompleted {
		t.Fatalf("status sequence = %v, want processing then completed", calls)
	}
	inv := repo.invoices["inv-1"]
	if inv.Summary == nil {
		t.Fatalf("summary not saved")
	}
	if inv.Summary.Source != domain.SourceAI {
		t.Fatalf("source = %q, want ai", inv.Summary.Source)
	}
	if inv.Summary.TotalTTC != "145,50 €" {
		t.Fatalf("total = %q, want normalized 145,50 €", inv.Summary.TotalTTC)
	}
	if metrics.extractions[domain.SourceAI] != 1 {
		t.Fatalf("ai extraction metric = %d, want 1", metrics.extractions[domain.SourceAI])
	}
}

func TestProcessByIDDegradesOnExtractorError(t *testing.T) {
	uc, repo, _, metrics := newProcessFixture(t, &extractorFake{err: errors.New("model down")})

	if err := uc.ProcessByID(context.Background(), "inv-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v, want degraded success", err)
	}

	inv := repo.invoices["inv-1"]
	if inv.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want completed despite model failure", inv.Status)
	}
	if inv.Summary == nil || inv.Summary.Source != domain.SourceFallback {
		t.Fatalf("summary = %+v, want fallback source", inv.Summary)
	}
	if inv.Summary.DegradedReason == "" {
		t.Fatalf("degraded reason not recorded")
	}
	if metrics.extractions[domain.SourceFallback] != 1 {
		t.Fatalf("fallback extraction metric = %d, want 1", metrics.extractions[domain.SourceFallback])
	}
}

func TestProcessByIDDegradesOnMissingBytes(t *testing.T) {
	uc, repo, storage, _ := newProcessFixture(t, &extractorFake{})
	delete(storage.objects, "u1/1_edf.pdf")

	if err := uc.ProcessByID(context.Background(), "inv-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v, want degraded success", err)
	}
	inv := repo.invoices["inv-1"]
	if inv.Status != domain.StatusCompleted || inv.Summary == nil || inv.Summary.Source != domain.SourceFallback {
		t.Fatalf("invoice = %+v, want completed with fallback summary", inv)
	}
}

func TestProcessByIDReadsSpoolWhenPrimaryFails(t *testing.T) {
	extractor := &extractorFake{extraction: domain.Extraction{Vendor: "AWS", TotalTTC: "30.00"}}
	repo := newInvoiceRepoFake(&domain.Invoice{
		ID: "inv-1", UserID: "u1", Status: domain.StatusPending, StorageKey: "u1/1_f.pdf",
	})
	primary := newStorageFake()
	primary.openErr = errors.New("bucket down")
	spool := newStorageFake()
	spool.objects["u1/1_f.pdf"] = bytes.Repeat([]byte("x"), 8)

	uc := NewProcessInvoiceUseCase(repo, primary, spool, extractor, NewSeededFallbackSynthesizer(1, time.Now), nil, nil)
	if err := uc.ProcessByID(context.Background(), "inv-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if got := repo.invoices["inv-1"].Summary.Source; got != domain.SourceAI {
		t.Fatalf("source = %q, want ai via spool bytes", got)
	}
}

func TestProcessByIDPromotesSpoolBytesToPrimary(t *testing.T) {
	extractor := &extractorFake{extraction: domain.Extraction{Vendor: "EDF", TotalTTC: "52.30"}}
	repo := newInvoiceRepoFake(&domain.Invoice{
		ID: "inv-1", UserID: "u1", Status: domain.StatusPending, StorageKey: "u1/1_f.pdf",
		FileURL: "spool://u1/1_f.pdf",
	})
	primary := newStorageFake()
	spool := newStorageFake()
	spool.objects["u1/1_f.pdf"] = []byte("%PDF-1.4 spooled")

	uc := NewProcessInvoiceUseCase(repo, primary, spool, extractor, NewSeededFallbackSynthesizer(1, time.Now), nil, nil)
	if err := uc.ProcessByID(context.Background(), "inv-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if got, ok := primary.objects["u1/1_f.pdf"]; !ok || string(got) != "%PDF-1.4 spooled" {
		t.Fatalf("primary objects = %v, want spooled bytes promoted", primary.objects)
	}
	if got := repo.invoices["inv-1"].FileURL; got != "mem://u1/1_f.pdf" {
		t.Fatalf("file url = %q, want primary url after promotion", got)
	}
}

func TestProcessByIDKeepsSpoolURLWhenPromotionFails(t *testing.T) {
	extractor := &extractorFake{extraction: domain.Extraction{Vendor: "EDF", TotalTTC: "52.30"}}
	repo := newInvoiceRepoFake(&domain.Invoice{
		ID: "inv-1", UserID: "u1", Status: domain.StatusPending, StorageKey: "u1/1_f.pdf",
		FileURL: "spool://u1/1_f.pdf",
	})
	primary := newStorageFake()
	primary.saveErr = errors.New("bucket still down")
	spool := newStorageFake()
	spool.objects["u1/1_f.pdf"] = []byte("%PDF-1.4 spooled")

	uc := NewProcessInvoiceUseCase(repo, primary, spool, extractor, NewSeededFallbackSynthesizer(1, time.Now), nil, nil)
	if err := uc.ProcessByID(context.Background(), "inv-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v, promotion must stay best effort", err)
	}

	if got := repo.invoices["inv-1"].FileURL; got != "spool://u1/1_f.pdf" {
		t.Fatalf("file url = %q, want untouched spool url", got)
	}
	if got := repo.invoices["inv-1"].Summary.Source; got != domain.SourceAI {
		t.Fatalf("source = %q, want ai despite failed promotion", got)
	}
}

func TestProcessByIDRejectsCompletedInvoice(t *testing.T) {
	uc, repo, _, _ := newProcessFixture(t, &extractorFake{})
	repo.invoices["inv-1"].Status = domain.StatusCompleted

	err := uc.ProcessByID(context.Background(), "inv-1")
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestProcessByIDPropagatesRepositoryFailure(t *testing.T) {
	uc, repo, _, _ := newProcessFixture(t, &extractorFake{})
	repo.saveErr = errors.New("db down")

	if err := uc.ProcessByID(context.Background(), "inv-1"); err == nil {
		t.Fatalf("expected error when summary save fails")
	}
}

func TestProcessBatchAlwaysTerminatesCompleted(t *testing.T) {
	var invoices []*domain.Invoice
	storage := newStorageFake()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("inv-%d", i)
		key := fmt.Sprintf("u1/%d_f.pdf", i)
		invoices = append(invoices, &domain.Invoice{
			ID: id, UserID: "u1", Status: domain.StatusPending, StorageKey: key,
		})
		storage.objects[key] = []byte("doc")
	}
	repo := newInvoiceRepoFake(invoices...)

	// The extractor fails on every other document; completion must not
	// depend on it.
	extractor := &flakyExtractor{}
	uc := NewProcessInvoiceUseCase(repo, storage, newStorageFake(), extractor, NewSeededFallbackSynthesizer(3, time.Now), nil, nil)

	for _, inv := range invoices {
		if err := uc.ProcessByID(context.Background(), inv.ID); err != nil {
			t.Fatalf("ProcessByID(%s) error = %v", inv.ID, err)
		}
	}
	for _, inv := range invoices {
		got := repo.invoices[inv.ID]
		if got.Status != domain.StatusCompleted {
			t.Fatalf("invoice %s status = %q, want completed", inv.ID, got.Status)
		}
		if got.Summary == nil {
			t.Fatalf("invoice %s has no summary", inv.ID)
		}
	}
}

type flakyExtractor struct {
	calls int
}

func (f *flakyExtractor) Extract(context.Context, []byte, string) (domain.Extraction, error) {
	f.calls++
	if f.calls%2 == 0 {
		return domain.Extraction{}, errors.New("model timeout")
	}
	return domain.Extraction{Vendor: "EDF France", TotalTTC: "99.90"}, nil
}
