package validation

import (
	"errors"
	"testing"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"notes.pdf":         "pdf",
		"Notes.PDF":         "pdf",
		"report.final.docx": "docx",
		"readme":            "",
		".txt":              "txt",
		"archive.tar.gz":    "gz",
		`C:\docs\a.Docx`:    "docx",
		"dir.v2/readme":     "",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Extension(in), "filename %q", in)
	}
}

func TestValidateGenerateRequest_Accepts(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.TXT", "c.docx"} {
		for _, n := range []int{1, 25, 50} {
			assert.Empty(t, ValidateGenerateRequest(name, n), "%s with %d", name, n)
		}
	}
}

func TestValidateGenerateRequest_RejectsCount(t *testing.T) {
	for _, n := range []int{-1, 0, 51} {
		errs := ValidateGenerateRequest("a.txt", n)
		require.Len(t, errs, 1, "count %d", n)
		assert.Equal(t, "num_questions", errs[0].Field)
		assert.True(t, errors.Is(errs, common.ErrValidation))
	}
}

func TestValidateGenerateRequest_RejectsExtension(t *testing.T) {
	for _, name := range []string{"image.png", "script", "doc.doc"} {
		errs := ValidateGenerateRequest(name, 5)
		require.Len(t, errs, 1, "filename %q", name)
		assert.Equal(t, "file", errs[0].Field)
		assert.Equal(t, invalidFormatMessage, errs[0].Message)
	}
}

func TestValidateGenerateRequest_CollectsAll(t *testing.T) {
	errs := ValidateGenerateRequest("x.exe", 0)
	require.Len(t, errs, 2)
	assert.Contains(t, errs.Error(), invalidFormatMessage)
	assert.Contains(t, errs.Error(), "num_questions")
	assert.Equal(t, errs.Error(), common.Detail(errs))
}

func TestValidateNumQuestions(t *testing.T) {
	assert.Empty(t, ValidateNumQuestions(1))
	assert.Empty(t, ValidateNumQuestions(50))
	errs := ValidateNumQuestions(51)
	require.Len(t, errs, 1)
	assert.Equal(t, "num_questions must be between 1 and 50, got 51", errs[0].Message)
}

func TestValidateFilename(t *testing.T) {
	assert.Nil(t, ValidateFilename("ok.docx"))
	assert.NotNil(t, ValidateFilename("bad.rtf"))
}
