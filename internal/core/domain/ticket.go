package domain

import "time"

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

type Ticket struct {
	ID        string       `json:"id"`
	TicketRef string       `json:"ticket_ref"`
	UserID    string       `json:"user_id"`
	Subject   string       `json:"subject"`
	Category  string       `json:"category"`
	Priority  string       `json:"priority"`
	Message   string       `json:"message"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
