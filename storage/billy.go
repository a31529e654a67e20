package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

// BillyFS implements FS on top of a go-billy filesystem.
type BillyFS struct {
	fs billy.Filesystem
}

// NewBillyFS wraps an existing go-billy filesystem.
func NewBillyFS(fsys billy.Filesystem) *BillyFS {
	return &BillyFS{fs: fsys}
}

// NewOSFS returns a filesystem that resolves paths like the native one.
// Absolute paths are used as-is.
func NewOSFS() *BillyFS {
	return &BillyFS{fs: osfs.New("/")}
}

// NewDirFS returns a filesystem rooted at dir. Paths are relative to dir.
func NewDirFS(dir string) *BillyFS {
	return &BillyFS{fs: osfs.New(dir)}
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *BillyFS {
	return &BillyFS{fs: memfs.New()}
}

// ReadDir implements FS.ReadDir.
func (b *BillyFS) ReadDir(dir string) ([]os.FileInfo, error) {
	list, err := b.fs.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "billy: readdir %q", dir)
	}
	return list, nil
}

// Walk implements FS.Walk.
func (b *BillyFS) Walk(root string, fn filepath.WalkFunc) error {
	// util.Walk hands fn's own errors back untouched, so they are not wrapped
	// here either; callers compare them by identity.
	return util.Walk(b.fs, root, fn)
}

// Open implements FS.Open.
func (b *BillyFS) Open(name string) (io.ReadCloser, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "billy: open %q", name)
	}
	return f, nil
}

// Join implements FS.Join.
func (b *BillyFS) Join(elem ...string) string {
	return b.fs.Join(elem...)
}

// MkdirAll creates a directory and any missing parents.
func (b *BillyFS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return errors.Wrapf(err, "billy: mkdirall %q", path)
	}
	return nil
}

// WriteFile writes data to filename, creating parent directories.
func (b *BillyFS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, filename, data, perm); err != nil {
		return errors.Wrapf(err, "billy: writefile %q", filename)
	}
	return nil
}

// Raw returns the underlying go-billy filesystem.
//
//nolint:ireturn // exposes the adapter target.
func (b *BillyFS) Raw() billy.Filesystem {
	return b.fs
}

var _ FS = (*BillyFS)(nil)
