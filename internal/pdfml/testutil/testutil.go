// Package testutil generates small synthetic PDF fixtures for the pdfml
// packages' tests. Real corpus PDFs aren't available in-tree, so tests
// that need to exercise pdfcpu's extraction path render their own minimal
// documents instead.
package testutil

import (
	"github.com/go-pdf/fpdf"
)

// SyntheticPDF renders a multi-page PDF to path, one line of body text per
// entry in linesPerPage (each inner slice is the lines placed on that
// page), using a fixed US-Letter page size so callers can assert against
// docmodel.USLetter geometry.
func SyntheticPDF(path string, linesPerPage [][]string) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 12)

	for _, lines := range linesPerPage {
		pdf.AddPage()
		for _, line := range lines {
			pdf.Cell(0, 14, line)
			pdf.Ln(14)
		}
	}

	return pdf.OutputFileAndClose(path)
}
