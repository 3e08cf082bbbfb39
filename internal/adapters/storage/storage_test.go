package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", ""},
		{"", ""},
		{"/a/b.txt", "a/b.txt"},
		{"/a//b/./c", "a/b/c"},
		{"/../../etc/passwd", "etc/passwd"},
		{"a/../b", "a/b"},
		{"/dir/", "dir"},
	}
	for _, tc := range tests {
		if got := CleanPath(tc.in); got != tc.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPutCreatesParents(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(afero.NewMemMapFs())

	n, err := a.Put(ctx, "caches/x/y/blob.bin", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 5 {
		t.Fatalf("Put wrote %d bytes, want 5", n)
	}

	rc, info, err := a.Open(ctx, "caches/x/y/blob.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Fatalf("content = %q", data)
	}
	if info.Size != 5 || info.IsDir {
		t.Fatalf("info = %+v", info)
	}

	dir, err := a.Stat(ctx, "caches/x")
	if err != nil || !dir.IsDir {
		t.Fatalf("parent not created: %+v %v", dir, err)
	}
}

func TestPutReplacesAndLeavesNoTemporaries(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(afero.NewMemMapFs())

	if _, err := a.Put(ctx, "f", strings.NewReader("first")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Put(ctx, "f", strings.NewReader("second")); err != nil {
		t.Fatal(err)
	}

	files, err := a.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(files, []string{"./f"}) {
		t.Fatalf("List = %v", files)
	}
	rc, _, err := a.Open(ctx, "f")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "second" {
		t.Fatalf("content = %q", data)
	}
}

func TestPutOnDirectory(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	_ = fsys.MkdirAll("/d", 0o755)
	a := NewAdapter(fsys)

	if _, err := a.Put(ctx, "d", strings.NewReader("x")); !errors.Is(err, ports.ErrIsDirectory) {
		t.Fatalf("Put on directory err = %v, want ErrIsDirectory", err)
	}
}

func TestOpenMissingAndDirectory(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	_ = fsys.MkdirAll("/d", 0o755)
	a := NewAdapter(fsys)

	if _, _, err := a.Open(ctx, "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Open missing err = %v", err)
	}
	if _, _, err := a.Open(ctx, "d"); !errors.Is(err, ports.ErrIsDirectory) {
		t.Fatalf("Open dir err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(afero.NewMemMapFs())
	for _, p := range []string{"a/1", "a/b/2", "c"} {
		if _, err := a.Put(ctx, p, strings.NewReader(p)); err != nil {
			t.Fatal(err)
		}
	}

	if err := a.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete dir: %v", err)
	}
	if err := a.Delete(ctx, "c"); err != nil {
		t.Fatalf("Delete file: %v", err)
	}
	if err := a.Delete(ctx, "c"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}

	files, err := a.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("List after delete = %v", files)
	}
}

func TestListSortedRelative(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(afero.NewMemMapFs())
	for _, p := range []string{"x/z", "x/a/b", "x/m", "other"} {
		if _, err := a.Put(ctx, p, strings.NewReader("")); err != nil {
			t.Fatal(err)
		}
	}

	files, err := a.List(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"./a/b", "./m", "./z"}
	if !slices.Equal(files, want) {
		t.Fatalf("List = %v, want %v", files, want)
	}
}

func TestOSAdapterStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	a, err := NewOSAdapter(root)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Put(ctx, "../../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Fatalf("file not written inside root: %v", err)
	}
}

func TestNewOSAdapterMissingRoot(t *testing.T) {
	if _, err := NewOSAdapter(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}
