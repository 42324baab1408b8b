package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/fedutinova/mcqgen/internal/mcq"
	"github.com/fedutinova/mcqgen/internal/validation"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	timestampLayout = "20060102150405"
	createAttempts  = 3
)

type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// URL is the public path of an artifact.
func (s *LocalStorage) URL(name string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(name))
}

// Persist writes text verbatim to a .txt file and its rendered blocks to a
// .pdf file with the same stem. Either both files exist afterwards or
// neither does.
func (s *LocalStorage) Persist(ctx context.Context, text, originalName string, now time.Time) (*Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.WrapPersistence("request cancelled", err)
	}

	stem := ArtifactStem(originalName, now)
	txtFile, pdfFile, err := s.createPair(stem)
	if err != nil {
		return nil, common.WrapPersistence("create artifacts", err)
	}

	art := &Artifacts{
		TxtName: filepath.Base(txtFile.Name()),
		PdfName: filepath.Base(pdfFile.Name()),
		TxtPath: txtFile.Name(),
		PdfPath: pdfFile.Name(),
	}

	discard := func() {
		txtFile.Close()
		pdfFile.Close()
		for _, name := range []string{art.TxtName, art.PdfName} {
			if rmErr := s.DeleteFile(ctx, name); rmErr != nil && !common.IsNotFound(rmErr) {
				slog.Warn("failed to remove partial artifact", "name", name, "error", rmErr)
			}
		}
	}

	if _, err := txtFile.WriteString(text); err != nil {
		discard()
		return nil, common.WrapPersistence("write txt", err)
	}
	if err := txtFile.Close(); err != nil {
		discard()
		return nil, common.WrapPersistence("write txt", err)
	}

	blocks := mcq.SplitBlocks(text)
	if err := renderPDF(pdfFile, blocks); err != nil {
		discard()
		return nil, common.WrapPersistence("write pdf", err)
	}
	if err := pdfFile.Close(); err != nil {
		discard()
		return nil, common.WrapPersistence("write pdf", err)
	}
	art.Blocks = len(blocks)

	slog.Info("artifacts saved",
		"txt", art.TxtName,
		"pdf", art.PdfName,
		"blocks", art.Blocks,
		"bytes", len(text))

	return art, nil
}

// createPair exclusively creates <stem>.txt and <stem>.pdf. When either name
// is taken a short random suffix is appended to the stem and creation is
// retried.
func (s *LocalStorage) createPair(stem string) (*os.File, *os.File, error) {
	candidate := stem
	for attempt := 0; attempt < createAttempts; attempt++ {
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%s", stem, uuid.New().String()[:8])
		}

		txt, err := createExclusive(filepath.Join(s.baseDir, candidate+".txt"))
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		pdf, err := createExclusive(filepath.Join(s.baseDir, candidate+".pdf"))
		if err != nil {
			txt.Close()
			os.Remove(txt.Name())
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return nil, nil, err
		}

		if candidate != stem {
			slog.Debug("artifact name taken, using suffix", "stem", stem, "name", candidate)
		}
		return txt, pdf, nil
	}
	return nil, nil, fmt.Errorf("no free artifact name for %q after %d attempts", stem, createAttempts)
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}

// ArtifactStem builds mcqs_<base>_<YYYYMMDDHHMMSS> from the upload name.
func ArtifactStem(originalName string, now time.Time) string {
	base := validation.BaseName(originalName)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return fmt.Sprintf("mcqs_%s_%s", base, now.Format(timestampLayout))
}

func (s *LocalStorage) GetFile(ctx context.Context, name string) (*File, error) {
	filePath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.WrapNotFound("artifact "+name, err)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, common.WrapNotFound("artifact "+name, common.ErrFileNotFound)
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(filePath); err == nil {
		contentType = mt.String()
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.WrapNotFound("artifact "+name, err)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	slog.Debug("file opened from local storage",
		"name", name,
		"path", filePath,
		"size", fileInfo.Size(),
		"content_type", contentType)

	return &File{
		Content:     file,
		Name:        name,
		Size:        fileInfo.Size(),
		ModTime:     fileInfo.ModTime(),
		ContentType: contentType,
	}, nil
}

func (s *LocalStorage) DeleteFile(ctx context.Context, name string) error {
	filePath, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return common.WrapNotFound("artifact "+name, err)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	slog.Info("file deleted from local storage", "name", name, "path", filePath)
	return nil
}

// resolve maps a bare artifact name to its path. Anything that could
// escape the results directory is reported as not found.
func (s *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", common.WrapNotFound("artifact "+name, common.ErrFileNotFound)
	}
	return filepath.Join(s.baseDir, name), nil
}
