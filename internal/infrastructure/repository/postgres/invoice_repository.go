package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *InvoiceRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	size BIGINT NOT NULL,
	mime_type TEXT NOT NULL,
	status TEXT NOT NULL,
	file_url TEXT NOT NULL DEFAULT '',
	storage_path TEXT NOT NULL DEFAULT '',
	summary JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_user_id ON invoices(user_id);
CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);
CREATE INDEX IF NOT EXISTS idx_invoices_user_name_size ON invoices(user_id, name, size);
CREATE INDEX IF NOT EXISTS idx_invoices_created_at ON invoices(created_at DESC);

CREATE TABLE IF NOT EXISTS tickets (
	id TEXT PRIMARY KEY,
	ticket_ref TEXT NOT NULL,
	user_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickets_user_id ON tickets(user_id);

CREATE TABLE IF NOT EXISTS chat_messages (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation ON chat_messages(user_id, conversation_id, created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	summaryJSON, err := marshalSummary(inv.Summary)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO invoices (
	id, user_id, name, size, mime_type, status, file_url, storage_path, summary, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		inv.ID, inv.UserID, inv.Name, inv.Size, inv.MimeType, string(inv.Status),
		inv.FileURL, inv.StorageKey, summaryJSON, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

const invoiceColumns = `id, user_id, name, size, mime_type, status, file_url, storage_path, summary, created_at, updated_at`

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE id = $1
`, id)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepository) ListByUser(ctx context.Context, userID string) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $2, updated_at = $3
WHERE id = $1
`, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return requireRow(res, "update invoice status", id)
}

func (r *InvoiceRepository) SaveSummary(ctx context.Context, id string, summary domain.InvoiceSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET summary = $2, updated_at = $3
WHERE id = $1
`, id, summaryJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return requireRow(res, "save summary", id)
}

func (r *InvoiceRepository) UpdateFileURL(ctx context.Context, id, fileURL string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET file_url = $2, updated_at = $3
WHERE id = $1
`, id, fileURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update file url: %w", err)
	}
	return requireRow(res, "update file url", id)
}

func requireRow(res sql.Result, operation, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrInvoiceNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}

// UpdatePaymentStatus rewrites the paymentStatus key inside the summary
// JSONB for every owned invoice in ids that already has a summary.
func (r *InvoiceRepository) UpdatePaymentStatus(ctx context.Context, userID string, ids []string, status domain.PaymentStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET summary = jsonb_set(summary, '{paymentStatus}', to_jsonb($3::text)), updated_at = $4
WHERE user_id = $1 AND id = ANY($2::text[]) AND summary IS NOT NULL
`, userID, textArray(ids), string(status), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *InvoiceRepository) ExistsNameSize(ctx context.Context, userID, name string, size int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM invoices WHERE user_id = $1 AND name = $2 AND size = $3
)
`, userID, name, size).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("duplicate lookup: %w", err)
	}
	return exists, nil
}

// textArray renders ids as a Postgres array literal so the statement stays
// portable across drivers.
func textArray(ids []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var status string
	var summaryRaw []byte

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.Name, &inv.Size, &inv.MimeType, &status,
		&inv.FileURL, &inv.StorageKey, &summaryRaw, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	inv.Status = domain.InvoiceStatus(status)
	if len(summaryRaw) > 0 {
		var summary domain.InvoiceSummary
		if err := json.Unmarshal(summaryRaw, &summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
		inv.Summary = &summary
	}
	return &inv, nil
}

func marshalSummary(summary *domain.InvoiceSummary) (any, error) {
	if summary == nil {
		return nil, nil
	}
	b, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return b, nil
}
