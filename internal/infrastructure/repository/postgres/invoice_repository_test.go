package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*InvoiceRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &InvoiceRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, user_id, name, size, mime_type").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesSummary(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	summaryJSON, _ := json.Marshal(domain.InvoiceSummary{
		Vendor:        "EDF France",
		TotalTTC:      "145,50 €",
		Compliance:    92,
		PaymentStatus: domain.PaymentToValidate,
		Source:        domain.SourceAI,
	})
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "size", "mime_type", "status",
		"file_url", "storage_path", "summary", "created_at", "updated_at",
	}).AddRow("inv-1", "u1", "edf.pdf", int64(1024), "application/pdf", "completed",
		"mem://u1/1_edf.pdf", "u1/1_edf.pdf", summaryJSON, now, now)

	mock.ExpectQuery("SELECT id, user_id, name, size, mime_type").
		WithArgs("inv-1").
		WillReturnRows(rows)

	inv, err := repo.GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if inv.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want completed", inv.Status)
	}
	if inv.StorageKey != "u1/1_edf.pdf" {
		t.Fatalf("storage key = %q", inv.StorageKey)
	}
	if inv.Summary == nil || inv.Summary.Vendor != "EDF France" || inv.Summary.Compliance != 92 {
		t.Fatalf("summary = %+v", inv.Summary)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDHandlesNullSummary(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "size", "mime_type", "status",
		"file_url", "storage_path", "summary", "created_at", "updated_at",
	}).AddRow("inv-1", "u1", "edf.pdf", int64(1024), "application/pdf", "pending",
		"", "u1/1_edf.pdf", nil, now, now)

	mock.ExpectQuery("SELECT id, user_id, name, size, mime_type").
		WithArgs("inv-1").
		WillReturnRows(rows)

	inv, err := repo.GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if inv.Summary != nil {
		t.Fatalf("summary = %+v, want nil for pending row", inv.Summary)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE invoices").
		WithArgs("missing", string(domain.StatusProcessing), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveSummaryReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE invoices").
		WithArgs("missing", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveSummary(context.Background(), "missing", domain.InvoiceSummary{Vendor: "AWS"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExistsNameSize(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", "edf.pdf", int64(1024)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsNameSize(context.Background(), "u1", "edf.pdf", 1024)
	if err != nil {
		t.Fatalf("ExistsNameSize() error = %v", err)
	}
	if !exists {
		t.Fatalf("exists = false, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePaymentStatusReturnsAffectedCount(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE invoices").
		WithArgs("u1", sqlmock.AnyArg(), "paid", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.UpdatePaymentStatus(context.Background(), "u1", []string{"a", "b"}, domain.PaymentPaid)
	if err != nil {
		t.Fatalf("UpdatePaymentStatus() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("affected = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
