package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) CreateTicket(ctx context.Context, t *domain.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tickets (id, ticket_ref, user_id, subject, category, priority, message, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, t.ID, t.TicketRef, t.UserID, t.Subject, t.Category, t.Priority, t.Message, string(t.Status), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) ListTickets(ctx context.Context, userID string) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, ticket_ref, user_id, subject, category, priority, message, status, created_at
FROM tickets
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		var status string
		if err := rows.Scan(
			&t.ID,
			&t.TicketRef,
			&t.UserID,
			&t.Subject,
			&t.Category,
			&t.Priority,
			&t.Message,
			&status,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.Status = domain.TicketStatus(status)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return out, nil
}
