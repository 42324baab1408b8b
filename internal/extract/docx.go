package extract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

var errNoDocumentPart = errors.New("word/document.xml not found")

// readDOCX joins the body paragraphs of a .docx file with single spaces.
// Only paragraphs that are direct children of the body are read and only
// their runs contribute text; tables, hyperlinks and drawings are skipped.
func readDOCX(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	// the document name is only set once word/document.xml was decoded
	if doc.Document.XMLName.Local == "" {
		return "", errNoDocumentPart
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, paragraphText(p))
		}
	}
	return strings.Join(paragraphs, " "), nil
}

func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range p.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, c := range run.Children {
			switch v := c.(type) {
			case *docx.Text:
				sb.WriteString(v.Text)
			case *docx.Tab:
				sb.WriteByte('\t')
			case *docx.BarterRabbet:
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
