package ports

import (
	"context"
	"io"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

// InvoiceIngestor is the inbound contract for the upload path: duplicate
// pre-check, import resolution and queueing for extraction.
type InvoiceIngestor interface {
	CheckDuplicates(ctx context.Context, userID string, candidates []domain.UploadCandidate) (domain.DuplicateReport, error)
	Upload(ctx context.Context, userID, filename, mimeType string, size int64, body io.Reader, mode domain.ImportMode) (*domain.Invoice, domain.ProbeResult, error)
	ProcessBatch(ctx context.Context, userID string, ids []string) (int, error)
}

// InvoiceProcessor is the inbound contract for asynchronous extraction.
type InvoiceProcessor interface {
	ProcessByID(ctx context.Context, invoiceID string) error
}

// InvoiceReader is the inbound read model for invoice state.
type InvoiceReader interface {
	GetByID(ctx context.Context, userID, id string) (*domain.Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Invoice, error)
	List(ctx context.Context, userID string, q domain.InvoiceQuery) ([]domain.Invoice, error)
}
