// Package storage provides the read-only filesystem view the example
// enumerator walks. Backends exist for the local disk, memory and
// S3-compatible object storage (see the minio subpackage).
package storage

import (
	"io"
	"os"
	"path/filepath"
)

// FS is the set of filesystem operations needed to enumerate an extracted
// archive. Paths use the backend's separator; build them with Join.
type FS interface {
	// ReadDir lists the immediate entries of dir in the order the backend
	// yields them. No sorting is guaranteed.
	ReadDir(dir string) ([]os.FileInfo, error)

	// Walk visits root and everything below it, calling fn for each entry.
	// Returning filepath.SkipDir from fn on a directory skips its subtree.
	Walk(root string, fn filepath.WalkFunc) error

	// Open opens name for reading.
	Open(name string) (io.ReadCloser, error)

	// Join joins path elements with the backend's separator.
	Join(elem ...string) string
}
