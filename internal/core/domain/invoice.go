package domain

import "time"

type InvoiceStatus string

const (
	StatusPending    InvoiceStatus = "pending"
	StatusProcessing InvoiceStatus = "processing"
	StatusCompleted  InvoiceStatus = "completed"
	// StatusError is part of the row contract but the pipeline never writes
	// it: every extraction failure degrades to a fallback summary and the
	// invoice still terminates at completed.
	StatusError InvoiceStatus = "error"
)

type PaymentStatus string

const (
	PaymentDraft      PaymentStatus = "draft"
	PaymentToValidate PaymentStatus = "to_validate"
	PaymentValidated  PaymentStatus = "validated"
	PaymentPaid       PaymentStatus = "paid"
)

// SummarySource tells whether a summary came from the extraction model or
// was synthesized locally after the model failed.
type SummarySource string

const (
	SourceAI       SummarySource = "ai"
	SourceFallback SummarySource = "fallback"
)

type Invoice struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Name       string          `json:"name"`
	Size       int64           `json:"size"`
	MimeType   string          `json:"type"`
	Status     InvoiceStatus   `json:"status"`
	FileURL    string          `json:"file_url,omitempty"`
	StorageKey string          `json:"-"`
	Summary    *InvoiceSummary `json:"summary,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InvoiceSummary carries the extracted financial facts. TotalTTC and Tax are
// display-formatted currency strings ("1 234,56 €"); aggregation re-parses
// them, mirroring the row format the views consume.
type InvoiceSummary struct {
	Vendor          string        `json:"vendor"`
	Date            string        `json:"date"`
	TotalTTC        string        `json:"totalTTC"`
	Tax             string        `json:"tax"`
	SIRET           string        `json:"siret,omitempty"`
	IBAN            string        `json:"iban,omitempty"`
	Category        string        `json:"category"`
	Compliance      int           `json:"compliance"`
	MissingElements []string      `json:"missingElements,omitempty"`
	FraudCheck      *FraudCheck   `json:"fraudCheck,omitempty"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Source          SummarySource `json:"source,omitempty"`
	DegradedReason  string        `json:"degraded_reason,omitempty"`
}

type FraudCheck struct {
	SiretValid  bool `json:"siretValid"`
	IbanTrusted bool `json:"ibanTrusted"`
	IsDuplicate bool `json:"isDuplicate"`
	Score       int  `json:"score"`
}

// Extraction is the raw shape the vision model returns before normalization.
// Amount fields arrive as free-form strings and must not be trusted.
type Extraction struct {
	Vendor          string   `json:"vendor"`
	Date            string   `json:"date"`
	TotalTTC        string   `json:"totalTTC"`
	Tax             string   `json:"tax"`
	SIRET           string   `json:"siret"`
	IBAN            string   `json:"iban"`
	Category        string   `json:"category"`
	Compliance      *float64 `json:"compliance"`
	MissingElements []string `json:"missingElements"`
}

// UploadCandidate identifies a file about to be imported. Name and byte
// count are the only signals the duplicate gate looks at.
type UploadCandidate struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// DuplicateReport is the result of the pre-import gate: candidates whose
// (name, size) pair already exists for the user.
type DuplicateReport struct {
	Duplicates []string `json:"duplicates"`
}

// ValidationEdit carries manual corrections a reviewer applies to a
// completed summary. Empty fields mean "keep the current value".
type ValidationEdit struct {
	Vendor        string        `json:"vendor"`
	Date          string        `json:"date"`
	TotalTTC      string        `json:"totalTTC"`
	Tax           string        `json:"tax"`
	SIRET         string        `json:"siret"`
	IBAN          string        `json:"iban"`
	Category      string        `json:"category"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// ImportMode is the caller's binary resolution when duplicates were flagged.
type ImportMode string

const (
	ImportAll    ImportMode = "all"
	ImportUnique ImportMode = "unique"
)
