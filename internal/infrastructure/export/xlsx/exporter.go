// Package xlsx renders invoice summaries into an Excel workbook for the
// dashboard export action.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

const sheetName = "Factures"

var headers = []string{
	"Fichier", "Fournisseur", "Date", "Montant TTC", "TVA",
	"SIRET", "Catégorie", "Conformité", "Statut paiement",
}

// Exporter implements ports.InvoiceExporter with excelize.
type Exporter struct{}

func New() *Exporter { return &Exporter{} }

// Export writes one row per invoice. Pending and processing rows are
// skipped: only analyzed summaries have exportable fields.
func (e *Exporter) Export(invoices []domain.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	row := 2
	for _, inv := range invoices {
		if inv.Status != domain.StatusCompleted || inv.Summary == nil {
			continue
		}
		s := inv.Summary
		values := []any{
			inv.Name, s.Vendor, s.Date, s.TotalTTC, s.Tax,
			s.SIRET, s.Category, s.Compliance, string(s.PaymentStatus),
		}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
