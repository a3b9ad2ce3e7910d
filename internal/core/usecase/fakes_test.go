package usecase

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

type invoiceRepoFake struct {
	invoices  map[string]*domain.Invoice
	order     []string
	createErr error
	getErr    error
	listErr   error
	statusErr error
	saveErr   error

	statusCalls map[string][]domain.InvoiceStatus
}

func newInvoiceRepoFake(invoices ...*domain.Invoice) *invoiceRepoFake {
	f := &invoiceRepoFake{
		invoices:    map[string]*domain.Invoice{},
		statusCalls: map[string][]domain.InvoiceStatus{},
	}
	for _, inv := range invoices {
		copyInv := *inv
		f.invoices[inv.ID] = &copyInv
		f.order = append(f.order, inv.ID)
	}
	return f
}

func (f *invoiceRepoFake) Create(_ context.Context, inv *domain.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyInv := *inv
	f.invoices[inv.ID] = &copyInv
	f.order = append(f.order, inv.ID)
	return nil
}

func (f *invoiceRepoFake) GetByID(_ context.Context, id string) (*domain.Invoice, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	copyInv := *inv
	return &copyInv, nil
}

func (f *invoiceRepoFake) ListByUser(_ context.Context, userID string) ([]domain.Invoice, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Invoice
	for _, id := range f.order {
		if inv := f.invoices[id]; inv.UserID == userID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *invoiceRepoFake) UpdateStatus(_ context.Context, id string, status domain.InvoiceStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls[id] = append(f.statusCalls[id], status)
	if inv, ok := f.invoices[id]; ok {
		inv.Status = status
	}
	return nil
}

func (f *invoiceRepoFake) SaveSummary(_ context.Context, id string, summary domain.InvoiceSummary) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if inv, ok := f.invoices[id]; ok {
		copySummary := summary
		inv.Summary = &copySummary
	}
	return nil
}

func (f *invoiceRepoFake) UpdateFileURL(_ context.Context, id, fileURL string) error {
	if inv, ok := f.invoices[id]; ok {
		inv.FileURL = fileURL
	}
	return nil
}

func (f *invoiceRepoFake) UpdatePaymentStatus(_ context.Context, userID string, ids []string, status domain.PaymentStatus) (int64, error) {
	var n int64
	for _, id := range ids {
		inv, ok := f.invoices[id]
		if !ok || inv.UserID != userID || inv.Summary == nil {
			continue
		}
		inv.Summary.PaymentStatus = status
		n++
	}
	return n, nil
}

func (f *invoiceRepoFake) ExistsNameSize(_ context.Context, userID, name string, size int64) (bool, error) {
	for _, inv := range f.invoices {
		if inv.UserID == userID && inv.Name == name && inv.Size == size {
			return true, nil
		}
	}
	return false, nil
}

type storageFake struct {
	objects map[string][]byte
	saveErr error
	openErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.objects[key] = b
	return "mem://" + key, nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	b, ok := f.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishInvoiceQueued(_ context.Context, invoiceID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, invoiceID)
	return nil
}

func (f *queueFake) SubscribeInvoiceQueued(context.Context, func(context.Context, string) error) error {
	return nil
}

type proberFake struct {
	result domain.ProbeResult
}

func (f *proberFake) Probe([]byte, string) domain.ProbeResult { return f.result }

type extractorFake struct {
	extraction domain.Extraction
	err        error
	calls      int
}

func (f *extractorFake) Extract(context.Context, []byte, string) (domain.Extraction, error) {
	f.calls++
	if f.err != nil {
		return domain.Extraction{}, f.err
	}
	return f.extraction, nil
}

type auditorFake struct {
	report domain.AuditReport
	err    error
}

func (f *auditorFake) Audit(context.Context, []byte, string) (domain.AuditReport, error) {
	if f.err != nil {
		return domain.AuditReport{}, f.err
	}
	return f.report, nil
}

type assistantFake struct {
	answer      string
	err         error
	lastPrompt  string
	lastContext string
	lastHistory []domain.ChatMessage
}

func (f *assistantFake) Chat(_ context.Context, prompt string, history []domain.ChatMessage, contextBlock string) (string, error) {
	f.lastPrompt = prompt
	f.lastHistory = history
	f.lastContext = contextBlock
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type chatStoreFake struct {
	messages  []domain.ChatMessage
	appendErr error
}

func (f *chatStoreFake) AppendMessage(_ context.Context, msg domain.ChatMessage) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *chatStoreFake) ListRecentMessages(_ context.Context, userID, conversationID string, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, m := range f.messages {
		if m.UserID == userID && m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type ticketStoreFake struct {
	tickets   []domain.Ticket
	createErr error
}

func (f *ticketStoreFake) CreateTicket(_ context.Context, t *domain.Ticket) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.tickets = append(f.tickets, *t)
	return nil
}

func (f *ticketStoreFake) ListTickets(_ context.Context, userID string) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type metricsFake struct {
	extractions map[domain.SummarySource]int
	compliance  []int
}

func newMetricsFake() *metricsFake {
	return &metricsFake{extractions: map[domain.SummarySource]int{}}
}

func (f *metricsFake) ObserveExtraction(source domain.SummarySource, _ float64) {
	f.extractions[source]++
}

func (f *metricsFake) ObserveCompliance(score int) {
	f.compliance = append(f.compliance, score)
}
