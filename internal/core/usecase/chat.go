package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

// chatContextInvoices bounds how many completed invoices feed the assistant
// context block.
const chatContextInvoices = 20

// chatHistoryLimit bounds the rolling history sent back to the model.
const chatHistoryLimit = 20

const assistantUnavailableAnswer = "Service indisponible temporairement."

// AssistantChatUseCase answers user questions about their invoice set. The
// model is untrusted: a failed call degrades to a fixed unavailability
// answer instead of an error so the conversation survives outages.
type AssistantChatUseCase struct {
	repo  ports.InvoiceRepository
	store ports.ChatStore
	model ports.AssistantModel
	now   func() time.Time
}

func NewAssistantChatUseCase(
	repo ports.InvoiceRepository,
	store ports.ChatStore,
	model ports.AssistantModel,
) *AssistantChatUseCase {
	return &AssistantChatUseCase{
		repo:  repo,
		store: store,
		model: model,
		now:   time.Now,
	}
}

func (uc *AssistantChatUseCase) Ask(ctx context.Context, userID, conversationID, prompt string) (domain.ChatAnswer, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.ChatAnswer{}, domain.WrapError(domain.ErrInvalidInput, "assistant chat", errors.New("empty prompt"))
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	history, err := uc.store.ListRecentMessages(ctx, userID, conversationID, chatHistoryLimit)
	if err != nil {
		return domain.ChatAnswer{}, fmt.Errorf("load chat history: %w", err)
	}

	contextBlock, err := uc.buildInvoiceContext(ctx, userID)
	if err != nil {
		return domain.ChatAnswer{}, err
	}

	answer, err := uc.model.Chat(ctx, prompt, history, contextBlock)
	if err != nil {
		slog.Warn("assistant_degraded", "conversation_id", conversationID, "error", err)
		answer = assistantUnavailableAnswer
	}

	now := uc.now().UTC()
	userMsg := domain.ChatMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Text:           prompt,
		CreatedAt:      now,
	}
	modelMsg := domain.ChatMessage{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Role:           domain.RoleModel,
		Text:           answer,
		CreatedAt:      now,
	}
	if err := uc.store.AppendMessage(ctx, userMsg); err != nil {
		return domain.ChatAnswer{}, fmt.Errorf("persist user message: %w", err)
	}
	if err := uc.store.AppendMessage(ctx, modelMsg); err != nil {
		return domain.ChatAnswer{}, fmt.Errorf("persist model message: %w", err)
	}

	return domain.ChatAnswer{ConversationID: conversationID, Text: answer}, nil
}

func (uc *AssistantChatUseCase) History(ctx context.Context, userID, conversationID string) ([]domain.ChatMessage, error) {
	messages, err := uc.store.ListRecentMessages(ctx, userID, conversationID, chatHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return messages, nil
}

// buildInvoiceContext renders the user's most recent completed invoices as
// the one-line-per-invoice block the assistant prompt embeds.
func (uc *AssistantChatUseCase) buildInvoiceContext(ctx context.Context, userID string) (string, error) {
	invoices, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list invoices: %w", err)
	}

	var b strings.Builder
	count := 0
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status != domain.StatusCompleted || inv.Summary == nil {
			continue
		}
		if count == chatContextInvoices {
			break
		}
		fmt.Fprintf(&b, "- %s: %s le %s (Cat: %s, Statut: %s)\n",
			inv.Summary.Vendor,
			inv.Summary.TotalTTC,
			inv.Summary.Date,
			inv.Summary.Category,
			inv.Summary.PaymentStatus,
		)
		count++
	}
	if count == 0 {
		return "Aucune facture analysée pour le moment.", nil
	}
	return b.String(), nil
}
