package storage

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	pdfFont       = "GoMono"
	pdfFontSize   = 12
	pdfLineHeight = 10
	pdfBlockGap   = 5
)

// renderPDF lays out each block as a wrapped paragraph followed by a fixed
// gap. Pages break automatically. Text outside the Basic Multilingual Plane
// fails the render instead of being dropped.
func renderPDF(w io.Writer, blocks []string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	doc.AddUTF8FontFromBytes(pdfFont, "", gomono.TTF)
	doc.AddPage()
	doc.SetFont(pdfFont, "", pdfFontSize)

	for _, block := range blocks {
		doc.MultiCell(0, pdfLineHeight, block, "", "L", false)
		doc.Ln(pdfBlockGap)
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
