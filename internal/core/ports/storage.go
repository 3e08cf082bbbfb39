package ports

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when a storage path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIsDirectory is returned when a file operation targets a directory.
	ErrIsDirectory = errors.New("is a directory")
)

// FileInfo describes one stored entry.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Storage is the tree of files served by the file server. Paths are slash
// separated and relative to the storage root.
type Storage interface {
	Stat(ctx context.Context, path string) (FileInfo, error)
	Open(ctx context.Context, path string) (io.ReadCloser, FileInfo, error)
	// Put replaces the file at path with the content of r, creating parent
	// directories. Readers never observe a partially written file.
	Put(ctx context.Context, path string, r io.Reader) (int64, error)
	// Delete removes a file or a whole directory tree.
	Delete(ctx context.Context, path string) error
	// List returns every regular file below dir, relative to dir, sorted.
	List(ctx context.Context, dir string) ([]string, error)
}
