package extract

import (
	"fmt"
	"log/slog"
	"strings"
)

// Extractor turns a staged document into plain text. Failures never escape:
// they are logged and reported as absent text.
type Extractor struct {
	readers map[string]func(path string) (string, error)
}

func New() *Extractor {
	return &Extractor{
		readers: map[string]func(string) (string, error){
			"pdf":  readPDF,
			"docx": readDOCX,
			"txt":  readText,
		},
	}
}

// Extract returns the document text and true, or "" and false when the
// document could not be read. ext is the declared extension without the dot.
func (e *Extractor) Extract(path, ext string) (text string, ok bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	read, found := e.readers[ext]
	if !found {
		slog.Warn("unsupported extension for extraction", "path", path, "ext", ext)
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("text extraction panicked", "path", path, "ext", ext, "panic", fmt.Sprint(r))
			text, ok = "", false
		}
	}()

	text, err := read(path)
	if err != nil {
		slog.Warn("error extracting text", "path", path, "ext", ext, "error", err)
		return "", false
	}

	slog.Debug("text extracted", "path", path, "ext", ext, "chars", len(text))
	return text, true
}
