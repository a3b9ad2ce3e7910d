package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rmarchais/facturx-backend/internal/config"
	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
	"github.com/rmarchais/facturx-backend/internal/core/usecase"
	"github.com/rmarchais/facturx-backend/internal/validation"
)

const userIDHeader = "X-User-Id"

type Router struct {
	cfg config.Config

	ingestUC    ports.InvoiceIngestor
	queryUC     ports.InvoiceReader
	dashboardUC *usecase.DashboardUseCase
	vaultUC     *usecase.VaultUseCase
	manageUC    *usecase.ManageInvoiceUseCase
	auditUC     *usecase.AuditInvoiceUseCase
	chatUC      *usecase.AssistantChatUseCase
	ticketUC    *usecase.SupportTicketUseCase
	notifier    *usecase.NotificationCenter
	exporter    ports.InvoiceExporter
}

func NewRouter(
	cfg config.Config,
	ingestUC ports.InvoiceIngestor,
	queryUC ports.InvoiceReader,
	dashboardUC *usecase.DashboardUseCase,
	vaultUC *usecase.VaultUseCase,
	manageUC *usecase.ManageInvoiceUseCase,
	auditUC *usecase.AuditInvoiceUseCase,
	chatUC *usecase.AssistantChatUseCase,
	ticketUC *usecase.SupportTicketUseCase,
	notifier *usecase.NotificationCenter,
	exporter ports.InvoiceExporter,
) *Router {
	return &Router{
		cfg:         cfg,
		ingestUC:    ingestUC,
		queryUC:     queryUC,
		dashboardUC: dashboardUC,
		vaultUC:     vaultUC,
		manageUC:    manageUC,
		auditUC:     auditUC,
		chatUC:      chatUC,
		ticketUC:    ticketUC,
		notifier:    notifier,
		exporter:    exporter,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/invoices", rt.invoicesCollection)
	mux.HandleFunc("/v1/invoices/", rt.invoicesSubtree)
	mux.HandleFunc("/v1/dashboard/stats", rt.dashboardStats)
	mux.HandleFunc("/v1/vault", rt.vault)
	mux.HandleFunc("/v1/assistant/chat", rt.assistantChat)
	mux.HandleFunc("/v1/assistant/history", rt.assistantHistory)
	mux.HandleFunc("/v1/tickets", rt.tickets)
	mux.HandleFunc("/v1/notifications", rt.listNotifications)
	mux.HandleFunc("/v1/notifications/read", rt.markNotificationsRead)
	mux.HandleFunc("/v1/account/validate", rt.validateAccountPayload)

	wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
	handler := backpressureMiddleware(mux, rt.cfg.APIMaxInFlight, wait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// invoicesCollection handles POST (multipart upload) and GET (filtered
// listing) on the collection itself.
func (rt *Router) invoicesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadInvoice(w, r)
	case http.MethodGet:
		rt.listInvoices(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

// invoicesSubtree dispatches the fixed actions under /v1/invoices/ and the
// per-invoice routes.
func (rt *Router) invoicesSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/invoices/")
	switch rest {
	case "duplicates":
		rt.checkDuplicates(w, r)
		return
	case "process":
		rt.processBatch(w, r)
		return
	case "payment-status":
		rt.updatePaymentStatus(w, r)
		return
	case "export":
		rt.exportInvoices(w, r)
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invoice id is required"})
		return
	}
	switch action {
	case "":
		rt.getInvoice(w, r, id)
	case "audit":
		rt.auditInvoice(w, r, id)
	case "validation":
		rt.saveValidation(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown invoice action"})
	}
}

func (rt *Router) checkDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Files []domain.UploadCandidate `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	report, err := rt.ingestUC.CheckDuplicates(r.Context(), userID, req.Files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	inv, probe, err := rt.ingestUC.Upload(
		r.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
		domain.ImportMode(r.FormValue("mode")),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	if inv == nil {
		// Unique mode skipped a flagged duplicate.
		writeJSON(w, http.StatusOK, map[string]any{
			"skipped": true,
			"name":    fileHeader.Filename,
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"invoice": inv,
		"probe":   probe,
	})
}

func (rt *Router) processBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	queued, err := rt.ingestUC.ProcessBatch(r.Context(), userID, req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

func (rt *Router) listInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := domain.InvoiceQuery{
		Search:        q.Get("search"),
		Name:          q.Get("name"),
		Vendor:        q.Get("vendor"),
		PaymentStatus: domain.PaymentStatus(q.Get("payment_status")),
		SortBy:        domain.SortField(q.Get("sort_by")),
		Descending:    q.Get("order") == "desc",
	}

	invoices, err := rt.queryUC.List(r.Context(), userID, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (rt *Router) getInvoice(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	inv, err := rt.queryUC.GetByID(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (rt *Router) auditInvoice(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := rt.auditUC.Audit(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) saveValidation(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var edit domain.ValidationEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	inv, err := rt.manageUC.SaveValidation(r.Context(), userID, id, edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (rt *Router) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		IDs    []string             `json:"ids"`
		Status domain.PaymentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	updated, err := rt.manageUC.UpdateStatuses(r.Context(), userID, req.IDs, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (rt *Router) exportInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	invoices, err := rt.queryUC.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	workbook, err := rt.exporter.Export(invoices)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("factures_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func (rt *Router) dashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	window, err := parseWindow(r.URL.Query().Get("window"), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := rt.dashboardUC.Stats(r.Context(), userID, window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) vault(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter := domain.VaultFilter{
		PaymentStatus: domain.PaymentStatus(r.URL.Query().Get("payment_status")),
		Critical:      r.URL.Query().Get("critical") == "true",
	}
	invoices, err := rt.vaultUC.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (rt *Router) assistantChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	answer, err := rt.chatUC.Ask(r.Context(), userID, req.ConversationID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) assistantHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "conversation_id is required"})
		return
	}

	messages, err := rt.chatUC.History(r.Context(), userID, conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (rt *Router) tickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req struct {
			Subject  string `json:"subject"`
			Category string `json:"category"`
			Priority string `json:"priority"`
			Message  string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		ticket, err := rt.ticketUC.Create(r.Context(), userID, req.Subject, req.Category, req.Priority, req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ticket)
	case http.MethodGet:
		tickets, err := rt.ticketUC.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
	default:
		writeMethodNotAllowed(w)
	}
}

// validateAccountPayload checks signup/profile fields without touching the
// identity provider, so the front can surface violations before submitting.
func (rt *Router) validateAccountPayload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		SIRET    string `json:"siret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	if _, flagged := v["email"]; !flagged {
		validation.Email("email", req.Email, v)
	}
	validation.Password("password", req.Password, v)
	if req.SIRET != "" {
		validation.SIRET("siret", req.SIRET, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      v.Empty(),
		"violations": v,
	})
}

func (rt *Router) listNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": rt.notifier.List(userID)})
}

// markNotificationsRead marks one notification (body {"id": "..."}), or all
// of them when the id is empty.
func (rt *Router) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if req.ID == "" {
		rt.notifier.MarkAllRead(userID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if !rt.notifier.MarkRead(userID, req.ID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseWindow(mode, from, to string) (domain.Window, error) {
	switch domain.WindowMode(mode) {
	case "", domain.WindowAll:
		return domain.Window{Mode: domain.WindowAll}, nil
	case domain.WindowMonth:
		return domain.Window{Mode: domain.WindowMonth}, nil
	case domain.WindowQuarter:
		return domain.Window{Mode: domain.WindowQuarter}, nil
	case domain.WindowRange:
		fromTime, err := time.Parse("2006-01-02", from)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid 'from' date, expected YYYY-MM-DD")
		}
		toTime, err := time.Parse("2006-01-02", to)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid 'to' date, expected YYYY-MM-DD")
		}
		return domain.Window{Mode: domain.WindowRange, From: fromTime, To: toTime}, nil
	default:
		return domain.Window{}, fmt.Errorf("unknown window mode %q", mode)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing X-User-Id header"})
		return "", false
	}
	return userID, true
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
