package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

const extractionPrompt = "Analyse ce document (facture). Extrais les champs demandés avec précision. " +
	"Si le document n'est pas une facture, indique une conformité de 0."

type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (domain.Extraction, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(extractionPrompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   extractionSchema(),
	}

	text, err := e.client.generate(ctx, "gemini.extract", contents, config)
	if err != nil {
		return domain.Extraction{}, err
	}

	var out domain.Extraction
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &out); err != nil {
		return domain.Extraction{}, fmt.Errorf("parse extraction json: %w", err)
	}
	return out, nil
}

func extractionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"vendor":   {Type: genai.TypeString, Description: "Nom de l'émetteur ou fournisseur"},
			"date":     {Type: genai.TypeString, Description: "Date d'émission au format JJ/MM/AAAA"},
			"totalTTC": {Type: genai.TypeString, Description: "Montant total TTC avec le symbole devise (ex: 20.00 €)"},
			"tax":      {Type: genai.TypeString, Description: "Montant total de la TVA avec devise"},
			"siret":    {Type: genai.TypeString, Description: "Numéro SIRET (14 chiffres) si présent"},
			"iban":     {Type: genai.TypeString, Description: "IBAN complet si présent"},
			"category": {Type: genai.TypeString, Description: "Catégorie suggérée (Énergie, Télécom, Services, Déplacements, etc.)"},
			"compliance": {
				Type:        genai.TypeNumber,
				Description: "Score de fiabilité/conformité estimé sur 100",
			},
			"missingElements": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Éléments obligatoires absents du document",
			},
		},
	}
}
