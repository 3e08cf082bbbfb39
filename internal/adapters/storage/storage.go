// Package storage implements ports.Storage on top of an afero filesystem,
// rooted at the directory given with --storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

// uploadPrefix marks files still being written by Put.
const uploadPrefix = ".upload-"

// Adapter implements ports.Storage.
type Adapter struct {
	fs afero.Fs
}

var _ ports.Storage = (*Adapter)(nil)

// NewAdapter serves the given filesystem as the storage root.
func NewAdapter(fsys afero.Fs) *Adapter {
	return &Adapter{fs: fsys}
}

// NewOSAdapter serves the directory root of the local filesystem. The
// directory must already exist.
func NewOSAdapter(root string) (*Adapter, error) {
	info, err := afero.NewOsFs().Stat(root)
	if err != nil {
		return nil, fmt.Errorf("storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s: %w", root, ports.ErrNotFound)
	}
	return NewAdapter(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// CleanPath turns a request path into a storage key. Empty, "." and ".."
// segments are dropped so the result never leaves the root; the root itself
// is "".
func CleanPath(p string) string {
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, s := range parts {
		if s == "" || s == "." || s == ".." {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, "/")
}

func fsPath(p string) string {
	return "/" + CleanPath(p)
}

func mapErr(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ports.ErrNotFound, err)
	}
	return err
}

func (a *Adapter) Stat(_ context.Context, p string) (ports.FileInfo, error) {
	info, err := a.fs.Stat(fsPath(p))
	if err != nil {
		return ports.FileInfo{}, mapErr(err)
	}
	return ports.FileInfo{
		Path:    CleanPath(p),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

func (a *Adapter) Open(ctx context.Context, p string) (io.ReadCloser, ports.FileInfo, error) {
	info, err := a.Stat(ctx, p)
	if err != nil {
		return nil, ports.FileInfo{}, err
	}
	if info.IsDir {
		return nil, info, ports.ErrIsDirectory
	}
	f, err := a.fs.Open(fsPath(p))
	if err != nil {
		return nil, ports.FileInfo{}, mapErr(err)
	}
	return f, info, nil
}

func (a *Adapter) Put(ctx context.Context, p string, r io.Reader) (int64, error) {
	name := fsPath(p)
	if info, err := a.fs.Stat(name); err == nil && info.IsDir() {
		return 0, ports.ErrIsDirectory
	}

	dir := path.Dir(name)
	if err := a.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := afero.TempFile(a.fs, dir, uploadPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = a.fs.Remove(tmpName) }

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		cleanup()
		return n, fmt.Errorf("write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return n, fmt.Errorf("close %s: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return n, err
	}
	if err := a.fs.Rename(tmpName, name); err != nil {
		cleanup()
		return n, fmt.Errorf("rename into %s: %w", p, err)
	}
	return n, nil
}

func (a *Adapter) Delete(_ context.Context, p string) error {
	name := fsPath(p)
	info, err := a.fs.Stat(name)
	if err != nil {
		return mapErr(err)
	}
	if info.IsDir() {
		return a.fs.RemoveAll(name)
	}
	return a.fs.Remove(name)
}

func (a *Adapter) List(_ context.Context, dir string) ([]string, error) {
	root := fsPath(dir)
	files := []string{}
	err := afero.Walk(a.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() || strings.HasPrefix(info.Name(), uploadPrefix) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, "./"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	sort.Strings(files)
	return files, nil
}
