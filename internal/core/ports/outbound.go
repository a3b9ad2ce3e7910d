package ports

import (
	"context"
	"io"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

// InvoiceRepository persists and reads invoice state.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	// GetByID is unscoped; callers serving user traffic must check ownership.
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) error
	SaveSummary(ctx context.Context, id string, summary domain.InvoiceSummary) error
	UpdateFileURL(ctx context.Context, id, fileURL string) error
	UpdatePaymentStatus(ctx context.Context, userID string, ids []string, status domain.PaymentStatus) (int64, error)
	ExistsNameSize(ctx context.Context, userID, name string, size int64) (bool, error)
}

// ObjectStorage stores source invoice documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (url string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes invoice processing events.
type MessageQueue interface {
	PublishInvoiceQueued(ctx context.Context, invoiceID string) error
	SubscribeInvoiceQueued(ctx context.Context, handler func(context.Context, string) error) error
}

// InvoiceExtractor runs the vision model over raw document bytes and returns
// the structured extraction. Implementations are untrusted: errors and
// unparseable payloads are expected outcomes.
type InvoiceExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (domain.Extraction, error)
}

// ComplianceAuditor produces the four-pillar audit report for a document.
type ComplianceAuditor interface {
	Audit(ctx context.Context, data []byte, mimeType string) (domain.AuditReport, error)
}

// AssistantModel answers a user prompt given rolling history and an invoice
// context block.
type AssistantModel interface {
	Chat(ctx context.Context, prompt string, history []domain.ChatMessage, context string) (string, error)
}

// DocumentProber inspects uploaded bytes for structural signals (page count,
// readability) without interpreting content.
type DocumentProber interface {
	Probe(data []byte, mimeType string) domain.ProbeResult
}

// PipelineMetrics records extraction pipeline outcomes.
type PipelineMetrics interface {
	ObserveExtraction(source domain.SummarySource, seconds float64)
	ObserveCompliance(score int)
}

// InvoiceExporter renders invoices into a downloadable workbook.
type InvoiceExporter interface {
	Export(invoices []domain.Invoice) ([]byte, error)
}

// ChatStore persists assistant conversation history.
type ChatStore interface {
	AppendMessage(ctx context.Context, msg domain.ChatMessage) error
	ListRecentMessages(ctx context.Context, userID, conversationID string, limit int) ([]domain.ChatMessage, error)
}

// TicketStore persists support tickets.
type TicketStore interface {
	CreateTicket(ctx context.Context, t *domain.Ticket) error
	ListTickets(ctx context.Context, userID string) ([]domain.Ticket, error)
}
