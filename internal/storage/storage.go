package storage

import (
	"context"
	"io"
	"time"
)

// Storage persists generated question sets and serves them back by name.
type Storage interface {
	Persist(ctx context.Context, text, originalName string, now time.Time) (*Artifacts, error)
	GetFile(ctx context.Context, name string) (*File, error)
	DeleteFile(ctx context.Context, name string) error
	URL(name string) string
	Dir() string
}

// Artifacts describes the .txt and .pdf pair written for one generation.
type Artifacts struct {
	TxtName string
	PdfName string
	TxtPath string
	PdfPath string
	Blocks  int
}

// File is an opened artifact ready to be served.
type File struct {
	Content     io.ReadSeekCloser
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
}
