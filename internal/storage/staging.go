package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/fedutinova/mcqgen/internal/validation"
	"github.com/gabriel-vasile/mimetype"
)

const stagingChunkSize = 1 << 20 // 1mb

// Staging writes uploads to a temporary directory while enforcing a size
// limit, so an oversized upload is never held in memory.
type Staging struct {
	dir     string
	maxSize int64
}

func NewStaging(dir string, maxSize int64) (*Staging, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Staging{dir: dir, maxSize: maxSize}, nil
}

func (s *Staging) Dir() string {
	return s.dir
}

// StagedFile is an upload on disk for the duration of one request.
type StagedFile struct {
	Path         string
	Size         int64
	OriginalName string
	Ext          string

	detected *mimetype.MIME
	once     sync.Once
}

// containers lists the sniffed type each binary extension must resolve to.
// Plain text is not sniffed.
var containers = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/zip",
}

// ContentType is the sniffed MIME type, or "" when detection failed.
func (f *StagedFile) ContentType() string {
	if f.detected == nil {
		return ""
	}
	return f.detected.String()
}

// MatchesExt reports whether the sniffed content can be what the extension
// claims. A docx matches through its zip ancestry. Files that could not be
// sniffed are left to the parser.
func (f *StagedFile) MatchesExt() bool {
	want, ok := containers[f.Ext]
	if !ok || f.detected == nil {
		return true
	}
	for mt := f.detected; mt != nil; mt = mt.Parent() {
		if mt.Is(want) {
			return true
		}
	}
	return false
}

// Remove deletes the staged file. Calling it more than once is safe.
func (f *StagedFile) Remove() {
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove staged upload", "path", f.Path, "error", err)
			return
		}
		slog.Debug("staged upload removed", "path", f.Path)
	})
}

// Stage copies r into a new file in 1 MiB chunks and aborts as soon as the
// running total passes the limit. Nothing is left on disk on failure.
func (s *Staging) Stage(filename string, r io.Reader) (*StagedFile, error) {
	base := validation.BaseName(filename)
	if base == "" {
		base = "upload"
	}

	f, err := os.CreateTemp(s.dir, "temp_*_"+strings.ReplaceAll(base, "*", "_"))
	if err != nil {
		return nil, common.WrapInternal("create staged upload", err)
	}
	path := f.Name()

	fail := func(err error) (*StagedFile, error) {
		f.Close()
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("failed to remove staged upload", "path", path, "error", rmErr)
		}
		return nil, err
	}

	buf := make([]byte, stagingChunkSize)
	var total int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > s.maxSize {
				slog.Warn("upload exceeds size limit", "filename", base, "limit", s.maxSize)
				return fail(s.tooLarge())
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return fail(common.WrapInternal("write staged upload", err))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(readErr, &maxBytesErr) {
				return fail(s.tooLarge())
			}
			return fail(common.BadRequest("Failed to read uploaded file.", readErr))
		}
	}

	if err := f.Close(); err != nil {
		return fail(common.WrapInternal("close staged upload", err))
	}

	staged := &StagedFile{
		Path:         path,
		Size:         total,
		OriginalName: filename,
		Ext:          validation.Extension(filename),
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		staged.detected = mt
	} else {
		slog.Warn("failed to sniff staged upload", "path", path, "error", err)
	}

	slog.Debug("upload staged", "filename", base, "path", path, "size", total, "detected", staged.ContentType())
	return staged, nil
}

func (s *Staging) tooLarge() error {
	return common.PayloadTooLarge(fmt.Sprintf("File too large. Max size is %dMB.", s.maxSize>>20))
}
