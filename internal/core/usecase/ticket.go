package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
	"github.com/rmarchais/facturx-backend/internal/validation"
)

// SupportTicketUseCase creates and lists support tickets. References are
// short human-readable "TK-XXXX" codes, not the row id.
type SupportTicketUseCase struct {
	store    ports.TicketStore
	notifier *NotificationCenter
	rng      *rand.Rand
	now      func() time.Time
}

func NewSupportTicketUseCase(store ports.TicketStore, notifier *NotificationCenter) *SupportTicketUseCase {
	return &SupportTicketUseCase{
		store:    store,
		notifier: notifier,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

func (uc *SupportTicketUseCase) Create(ctx context.Context, userID, subject, category, priority, message string) (*domain.Ticket, error) {
	v := validation.Violations{}
	validation.Required("subject", subject, v)
	validation.Required("message", message, v)
	validation.MaxLen("subject", subject, 200, v)
	validation.MaxLen("message", message, 5000, v)
	if !v.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create ticket", v)
	}

	t := &domain.Ticket{
		ID:        uuid.NewString(),
		TicketRef: fmt.Sprintf("TK-%d", 1000+uc.rng.Intn(9000)),
		UserID:    userID,
		Subject:   subject,
		Category:  category,
		Priority:  priority,
		Message:   message,
		Status:    domain.TicketOpen,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.store.CreateTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	if uc.notifier != nil {
		uc.notifier.Push(userID,
			fmt.Sprintf("Ticket créé #%s", t.TicketRef),
			"Votre demande a été enregistrée. Un technicien vous répondra sous 4h.",
			domain.NotifSuccess,
			t.ID,
		)
	}
	return t, nil
}

func (uc *SupportTicketUseCase) List(ctx context.Context, userID string) ([]domain.Ticket, error) {
	tickets, err := uc.store.ListTickets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}
