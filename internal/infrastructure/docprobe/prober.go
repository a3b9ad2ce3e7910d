// Package docprobe inspects uploaded bytes before they enter the pipeline.
// It answers structural questions only (page count, extractable text); the
// content itself is left to the analysis workers.
package docprobe

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
)

// Prober implements ports.DocumentProber for PDFs and scanned images.
type Prober struct{}

func New() *Prober { return &Prober{} }

// Probe never fails: a document we cannot parse is still accepted, the
// result just says so and the vision model deals with the raw bytes.
func (p *Prober) Probe(data []byte, mimeType string) domain.ProbeResult {
	if strings.HasPrefix(mimeType, "image/") {
		return domain.ProbeResult{Pages: 1, Readable: false, Note: "image scannée, analyse visuelle requise"}
	}
	if mimeType != "application/pdf" && !bytes.HasPrefix(data, []byte("%PDF")) {
		return domain.ProbeResult{Readable: false, Note: "format non reconnu"}
	}
	return probePDF(data)
}

func probePDF(data []byte) (res domain.ProbeResult) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			res = domain.ProbeResult{Readable: false, Note: "document PDF illisible"}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.ProbeResult{Readable: false, Note: "document PDF illisible"}
	}

	res = domain.ProbeResult{Pages: reader.NumPage()}
	if res.Pages == 0 {
		res.Note = "document PDF vide"
		return res
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		res.Note = "document PDF sans contenu"
		return res
	}
	text, err := page.GetPlainText(nil)
	if err != nil || strings.TrimSpace(text) == "" {
		res.Note = "aucun texte extractible, analyse visuelle requise"
		return res
	}
	res.Readable = true
	return res
}
