package domain

type RiskLevel string

const (
	RiskLow      RiskLevel = "Faible"
	RiskMedium   RiskLevel = "Moyen"
	RiskCritical RiskLevel = "Critique"
)

type AuditCheck struct {
	Status  bool   `json:"status"`
	Details string `json:"details"`
}

// AuditReport is the strict-JSON result of the on-demand compliance audit
// (EN 16931 fiscal fields, data quality, RGPD, authenticity).
type AuditReport struct {
	GlobalScore      int        `json:"globalScore"`
	RiskLevel        RiskLevel  `json:"riskLevel"`
	FiscalCheck      AuditCheck `json:"fiscalCheck"`
	DataQualityCheck AuditCheck `json:"dataQualityCheck"`
	GDPRCheck        AuditCheck `json:"gdprCheck"`
	Recommendations  []string   `json:"recommendations"`
}
