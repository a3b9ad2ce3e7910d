package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

const assistantInstruction = `Tu es l'assistant IA expert de 'Factur-X Converter'.
Ton rôle est d'aider les utilisateurs à comprendre leurs factures et conformité Factur-X.

RÈGLES DE FORMATAGE CRITIQUES :
1. Utilise des **mots en gras** pour les montants, les noms de fournisseurs et les dates.
2. Utilise des listes à puces (avec -) pour énumérer plusieurs éléments ou statistiques.
3. Aère tes réponses avec des sauts de ligne.
4. Sois très structuré : Titre, Liste, Conclusion.

CONTEXTE DES FACTURES ACTUELLES :
%s

Réponds de manière concise, professionnelle et ultra-lisible.`

type Assistant struct {
	client *Client
}

func NewAssistant(client *Client) *Assistant {
	return &Assistant{client: client}
}

func (a *Assistant) Chat(ctx context.Context, prompt string, history []domain.ChatMessage, invoiceContext string) (string, error) {
	if invoiceContext == "" {
		invoiceContext = "Aucune facture chargée."
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		role := genai.Role(genai.RoleUser)
		if msg.Role == domain.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			fmt.Sprintf(assistantInstruction, invoiceContext), genai.RoleUser),
	}

	return a.client.generate(ctx, "gemini.chat", contents, config)
}
