// Package mcqgen runs one upload through extraction, generation,
// persistence and the retention sweep.
package mcqgen

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/fedutinova/mcqgen/internal/retention"
	"github.com/fedutinova/mcqgen/internal/storage"
	"github.com/fedutinova/mcqgen/internal/validation"
)

const (
	successMessage = "MCQs generated successfully"
	noTextMessage  = "Could not extract text from the file."
)

type Extractor interface {
	Extract(path, ext string) (string, bool)
}

type Generator interface {
	Generate(ctx context.Context, text string, count int) (string, error)
}

type Store interface {
	Persist(ctx context.Context, text, originalName string, now time.Time) (*storage.Artifacts, error)
	URL(name string) string
}

type Stager interface {
	Stage(filename string, r io.Reader) (*storage.StagedFile, error)
}

// Result is returned to the client after a successful generation.
type Result struct {
	MCQs    string `json:"mcqs"`
	TxtURL  string `json:"txt_url"`
	PdfURL  string `json:"pdf_url"`
	Message string `json:"message"`

	TxtName string `json:"-"`
	PdfName string `json:"-"`
}

// Upload is a document as received from a client.
type Upload struct {
	Filename     string
	Content      io.Reader
	NumQuestions int
}

type Service struct {
	extractor Extractor
	generator Generator
	store     Store
	staging   Stager
	sweep     []retention.Target
	now       func() time.Time
}

func NewService(extractor Extractor, generator Generator, store Store, staging Stager, sweep ...retention.Target) *Service {
	return &Service{
		extractor: extractor,
		generator: generator,
		store:     store,
		staging:   staging,
		sweep:     sweep,
		now:       time.Now,
	}
}

// Validate checks the upload name and question count before any byte of
// the upload is read.
func (s *Service) Validate(filename string, numQuestions int) error {
	if errs := validation.ValidateGenerateRequest(filename, numQuestions); len(errs) > 0 {
		return errs
	}
	return nil
}

// Stage writes the upload to the staging area. Unsupported file types are
// rejected without reading r.
func (s *Service) Stage(filename string, r io.Reader) (*storage.StagedFile, error) {
	if errs := validation.ValidateFilename(filename); len(errs) > 0 {
		return nil, errs
	}
	return s.staging.Stage(filename, r)
}

// Generate validates, stages and processes an upload in one call.
func (s *Service) Generate(ctx context.Context, upload Upload) (*Result, error) {
	if err := s.Validate(upload.Filename, upload.NumQuestions); err != nil {
		return nil, err
	}
	staged, err := s.Stage(upload.Filename, upload.Content)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, staged, upload.NumQuestions)
}

// Process takes ownership of staged and removes it before returning,
// whatever the outcome.
func (s *Service) Process(ctx context.Context, staged *storage.StagedFile, numQuestions int) (*Result, error) {
	defer staged.Remove()

	if err := s.Validate(staged.OriginalName, numQuestions); err != nil {
		return nil, err
	}

	if !staged.MatchesExt() {
		slog.Warn("upload content does not match its extension",
			"filename", staged.OriginalName,
			"ext", staged.Ext,
			"detected", staged.ContentType())
		return nil, common.Extraction(noTextMessage)
	}

	text, ok := s.extractor.Extract(staged.Path, staged.Ext)
	staged.Remove()
	if !ok || strings.TrimSpace(text) == "" {
		slog.Warn("no text extracted from upload", "filename", staged.OriginalName, "ext", staged.Ext, "size", staged.Size)
		return nil, common.Extraction(noTextMessage)
	}

	mcqs, err := s.generator.Generate(ctx, text, numQuestions)
	if err != nil {
		return nil, err
	}

	art, err := s.store.Persist(ctx, mcqs, staged.OriginalName, s.now())
	if err != nil {
		slog.Error("failed to persist artifacts", "filename", staged.OriginalName, "error", err)
		return nil, err
	}

	retention.SweepTargets(s.sweep...)

	slog.Info("MCQs generated",
		"filename", staged.OriginalName,
		"questions", numQuestions,
		"blocks", art.Blocks,
		"txt", art.TxtName,
		"pdf", art.PdfName)

	return &Result{
		MCQs:    mcqs,
		TxtURL:  s.store.URL(art.TxtName),
		PdfURL:  s.store.URL(art.PdfName),
		Message: successMessage,
		TxtName: art.TxtName,
		PdfName: art.PdfName,
	}, nil
}
