package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

const auditPrompt = `Agis comme un auditeur expert en conformité fiscale européenne et en IA Responsable (EU AI Act).
Analyse ce document pour vérifier sa conformité stricte.

Vérifie les 4 piliers :
1. Conformité Fiscale (EN 16931) : Présence SIRET, TVA, Date, Totaux, Mentions légales.
2. Qualité des Données : Lisibilité, absence d'ambiguïté sur les montants.
3. Protection des Données (RGPD) : Présence de données sensibles non nécessaires.
4. Authenticité : Signes de manipulation ou d'incohérence visuelle.

Retourne un JSON strict.`

type Auditor struct {
	client *Client
}

func NewAuditor(client *Client) *Auditor {
	return &Auditor{client: client}
}

func (a *Auditor) Audit(ctx context.Context, data []byte, mimeType string) (domain.AuditReport, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(auditPrompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   auditSchema(),
	}

	text, err := a.client.generate(ctx, "gemini.audit", contents, config)
	if err != nil {
		return domain.AuditReport{}, err
	}

	var report domain.AuditReport
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &report); err != nil {
		return domain.AuditReport{}, fmt.Errorf("parse audit json: %w", err)
	}
	return report, nil
}

func auditSchema() *genai.Schema {
	check := func(description string) *genai.Schema {
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"status":  {Type: genai.TypeBoolean},
				"details": {Type: genai.TypeString, Description: description},
			},
		}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"globalScore": {Type: genai.TypeNumber, Description: "Score global sur 100"},
			"riskLevel": {
				Type:        genai.TypeString,
				Enum:        []string{"Faible", "Moyen", "Critique"},
				Description: "Niveau de risque légal",
			},
			"fiscalCheck":      check("Court commentaire sur la conformité fiscale (EN 16931)"),
			"dataQualityCheck": check("Court commentaire sur la lisibilité et qualité"),
			"gdprCheck":        check("Court commentaire sur les données personnelles (PII)"),
			"recommendations": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Liste de 3 recommandations précises pour améliorer la conformité",
			},
		},
	}
}
