package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMCQs = `## MCQ
Question: What organelle produces ATP?
A) Nucleus
B) Mitochondria
C) Ribosome
D) Golgi apparatus
Correct Answer: B

## MCQ
Question: Which pigment captures light?
A) Chlorophyll
B) Keratin
C) Melanin
D) Hemoglobin
Correct Answer: A
`

var fixedNow = time.Date(2026, 5, 4, 13, 7, 9, 0, time.UTC)

var sampleLines = []string{
	"Question: What organelle produces ATP?",
	"A) Nucleus",
	"B) Mitochondria",
	"C) Ribosome",
	"D) Golgi apparatus",
	"Correct Answer: B",
	"Question: Which pigment captures light?",
	"A) Chlorophyll",
	"B) Keratin",
	"C) Melanin",
	"D) Hemoglobin",
	"Correct Answer: A",
}

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "results"), "/results/")
	require.NoError(t, err)
	return s
}

func TestArtifactStem(t *testing.T) {
	tests := map[string]string{
		"biology.pdf":         "mcqs_biology_20260504130709",
		"notes.final.docx":    "mcqs_notes.final_20260504130709",
		`C:\Users\me\ch1.txt`: "mcqs_ch1_20260504130709",
		"/tmp/readme":         "mcqs_readme_20260504130709",
		".txt":                "mcqs_.txt_20260504130709",
	}
	for in, want := range tests {
		assert.Equal(t, want, ArtifactStem(in, fixedNow), "input %q", in)
	}
}

func TestPersist_WritesPair(t *testing.T) {
	s := newLocal(t)

	art, err := s.Persist(context.Background(), sampleMCQs, "biology.pdf", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "mcqs_biology_20260504130709.txt", art.TxtName)
	assert.Equal(t, "mcqs_biology_20260504130709.pdf", art.PdfName)
	assert.Equal(t, 2, art.Blocks)

	txt, err := os.ReadFile(art.TxtPath)
	require.NoError(t, err)
	assert.Equal(t, sampleMCQs, string(txt))

	raw, err := os.ReadFile(art.PdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
	assert.Equal(t, sampleLines, pdfLines(t, art.PdfPath))
}

// pdfLines returns the strings shown on each page, in content stream order.
// Text set in the embedded font is UTF-16BE.
func pdfLines(t *testing.T, path string) []string {
	t.Helper()
	f, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	for i := 1; i <= r.NumPage(); i++ {
		pdf.Interpret(r.Page(i).V.Key("Contents"), func(stk *pdf.Stack, op string) {
			args := make([]pdf.Value, stk.Len())
			for j := len(args) - 1; j >= 0; j-- {
				args[j] = stk.Pop()
			}
			if len(args) == 0 {
				return
			}
			last := args[len(args)-1]
			switch op {
			case "Tj":
				lines = append(lines, decodeUTF16(last.RawString()))
			case "TJ":
				var sb strings.Builder
				for k := 0; k < last.Len(); k++ {
					if v := last.Index(k); v.Kind() == pdf.String {
						sb.WriteString(decodeUTF16(v.RawString()))
					}
				}
				lines = append(lines, sb.String())
			}
		})
	}
	return lines
}

func decodeUTF16(raw string) string {
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return string(utf16.Decode(units))
}

func TestPersist_PDFKeepsNonLatinText(t *testing.T) {
	s := newLocal(t)

	text := "## MCQ\nQuestion: Что такое клетка?\nA) α-спираль\nB) café\nCorrect Answer: A\n"
	art, err := s.Persist(context.Background(), text, "cell.txt", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Question: Что такое клетка?",
		"A) α-спираль",
		"B) café",
		"Correct Answer: A",
	}, pdfLines(t, art.PdfPath))
}

func TestPersist_UnrenderableTextLeavesNothing(t *testing.T) {
	s := newLocal(t)

	_, err := s.Persist(context.Background(), "## MCQ\nQuestion: \U0001F9EC?", "dna.txt", fixedNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistence))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPersist_BlankBlocksSkipped(t *testing.T) {
	s := newLocal(t)

	text := "preamble\n## MCQ\n   \n## MCQ\nQuestion: only one?\n## MCQ\n"
	art, err := s.Persist(context.Background(), text, "a.txt", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, art.Blocks)
	assert.Equal(t, []string{"preamble", "Question: only one?"}, pdfLines(t, art.PdfPath))
}

func TestPersist_NameCollisionGetsSuffix(t *testing.T) {
	s := newLocal(t)

	first, err := s.Persist(context.Background(), sampleMCQs, "dup.txt", fixedNow)
	require.NoError(t, err)
	second, err := s.Persist(context.Background(), "other", "dup.txt", fixedNow)
	require.NoError(t, err)

	assert.NotEqual(t, first.TxtName, second.TxtName)
	assert.True(t, strings.HasPrefix(second.TxtName, "mcqs_dup_20260504130709_"))
	assert.Equal(t,
		strings.TrimSuffix(second.TxtName, ".txt"),
		strings.TrimSuffix(second.PdfName, ".pdf"))

	txt, err := os.ReadFile(first.TxtPath)
	require.NoError(t, err)
	assert.Equal(t, sampleMCQs, string(txt), "first artifact must not be overwritten")
}

func TestPersist_UnwritableDirectory(t *testing.T) {
	s := newLocal(t)
	require.NoError(t, os.RemoveAll(s.Dir()))

	_, err := s.Persist(context.Background(), sampleMCQs, "x.txt", fixedNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistence))
	assert.Equal(t, 500, common.HTTPStatus(err))
}

func TestPersist_CancelledContext(t *testing.T) {
	s := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Persist(ctx, sampleMCQs, "x.txt", fixedNow)
	assert.True(t, errors.Is(err, common.ErrPersistence))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetFile(t *testing.T) {
	s := newLocal(t)
	art, err := s.Persist(context.Background(), sampleMCQs, "bio.txt", fixedNow)
	require.NoError(t, err)

	f, err := s.GetFile(context.Background(), art.TxtName)
	require.NoError(t, err)
	defer f.Content.Close()

	data, err := io.ReadAll(f.Content)
	require.NoError(t, err)
	assert.Equal(t, sampleMCQs, string(data))
	assert.Equal(t, int64(len(sampleMCQs)), f.Size)
	assert.True(t, strings.HasPrefix(f.ContentType, "text/plain"), f.ContentType)

	pf, err := s.GetFile(context.Background(), art.PdfName)
	require.NoError(t, err)
	defer pf.Content.Close()
	assert.Equal(t, "application/pdf", pf.ContentType)
}

func TestGetFile_NotFound(t *testing.T) {
	s := newLocal(t)
	for _, name := range []string{"missing.txt", "../etc/passwd", `..\secret`, "..", ""} {
		_, err := s.GetFile(context.Background(), name)
		assert.True(t, common.IsNotFound(err), "name %q", name)
	}
}

func TestDeleteFile(t *testing.T) {
	s := newLocal(t)
	art, err := s.Persist(context.Background(), sampleMCQs, "bio.txt", fixedNow)
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(context.Background(), art.TxtName))
	assert.NoFileExists(t, art.TxtPath)
	assert.True(t, common.IsNotFound(s.DeleteFile(context.Background(), art.TxtName)))
}

func TestURL(t *testing.T) {
	s := newLocal(t)
	assert.Equal(t, "/results/mcqs_a_1.pdf", s.URL("mcqs_a_1.pdf"))
	assert.Equal(t, "/results/mcqs_my%20notes_1.txt", s.URL("mcqs_my notes_1.txt"))
}
