// Package minio exposes an S3-compatible bucket as a storage.FS so that an
// archive extracted into object storage can be enumerated in place.
//
// Object keys are treated as slash-separated paths. Directories do not exist
// as objects; they are derived from key prefixes.
package minio

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/tsawler/go-catsdogs/storage"
)

// Config holds the connection settings for a bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Prefix is prepended to every path, e.g. "datasets/raw".
	Prefix string
}

// FS is a read-only storage.FS backed by a MinIO/S3 bucket.
type FS struct {
	client *minio.Client
	bucket string
	prefix string
	ctx    context.Context
}

// Option configures an FS.
type Option func(*FS)

// WithPrefix scopes every path under prefix.
func WithPrefix(prefix string) Option {
	return func(f *FS) {
		f.prefix = strings.Trim(prefix, "/")
	}
}

// WithContext sets the context used for bucket requests.
func WithContext(ctx context.Context) Option {
	return func(f *FS) {
		f.ctx = ctx
	}
}

// New creates an FS over bucket using an existing client.
func New(client *minio.Client, bucket string, opts ...Option) *FS {
	f := &FS{
		client: client,
		bucket: bucket,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFromConfig dials the endpoint with static credentials.
func NewFromConfig(cfg Config, opts ...Option) (*FS, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("minio: bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "minio: connect %q", cfg.Endpoint)
	}
	if cfg.Prefix != "" {
		opts = append([]Option{WithPrefix(cfg.Prefix)}, opts...)
	}
	return New(client, cfg.Bucket, opts...), nil
}

// ReadDir implements storage.FS.ReadDir using a delimited listing.
func (f *FS) ReadDir(dir string) ([]os.FileInfo, error) {
	prefix := f.dirPrefix(dir)

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()

	var infos []os.FileInfo
	for obj := range f.client.ListObjects(ctx, f.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(translateError(obj.Err), "minio: readdir %q", dir)
		}
		rel := strings.TrimPrefix(obj.Key, prefix)
		if rel == "" {
			// Directory marker object for dir itself.
			continue
		}
		if strings.HasSuffix(rel, "/") {
			infos = append(infos, newDirInfo(strings.TrimSuffix(rel, "/")))
			continue
		}
		infos = append(infos, newFileInfo(rel, obj.Size, obj.LastModified))
	}

	if len(infos) == 0 {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	}
	return infos, nil
}

// Walk implements storage.FS.Walk with a recursive listing. Intermediate
// directories are reported once, before the first object below them.
func (f *FS) Walk(root string, fn filepath.WalkFunc) error {
	root = cleanPath(root)
	prefix := f.dirPrefix(root)

	if err := fn(root, newDirInfo(path.Base(root)), nil); err != nil {
		if err == filepath.SkipDir {
			return nil
		}
		return err
	}

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()

	seen := make(map[string]bool)
	var skipped []string
	isSkipped := func(p string) bool {
		for _, s := range skipped {
			if p == s || strings.HasPrefix(p, s+"/") {
				return true
			}
		}
		return false
	}

	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range f.client.ListObjects(ctx, f.bucket, opts) {
		if obj.Err != nil {
			if err := fn(root, nil, translateError(obj.Err)); err != nil && err != filepath.SkipDir {
				return err
			}
			return nil
		}

		rel := strings.TrimPrefix(obj.Key, prefix)
		if rel == "" {
			continue
		}
		marker := strings.HasSuffix(rel, "/")
		parts := strings.Split(strings.TrimSuffix(rel, "/"), "/")
		dirs := len(parts) - 1
		if marker {
			dirs = len(parts)
		}

		for i := 1; i <= dirs; i++ {
			dir := path.Join(root, strings.Join(parts[:i], "/"))
			if seen[dir] || isSkipped(dir) {
				continue
			}
			seen[dir] = true
			if err := fn(dir, newDirInfo(parts[i-1]), nil); err != nil {
				if err != filepath.SkipDir {
					return err
				}
				skipped = append(skipped, dir)
			}
		}

		if marker {
			continue
		}

		name := path.Join(root, rel)
		if isSkipped(name) {
			continue
		}
		if err := fn(name, newFileInfo(path.Base(rel), obj.Size, obj.LastModified), nil); err != nil {
			if err != filepath.SkipDir {
				return err
			}
			// SkipDir on a file skips the rest of its directory.
			skipped = append(skipped, path.Dir(name))
		}
	}
	return nil
}

// Open implements storage.FS.Open. The object is streamed lazily, so reading
// a short header does not download the whole object.
func (f *FS) Open(name string) (io.ReadCloser, error) {
	obj, err := f.client.GetObject(f.ctx, f.bucket, f.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(translateError(err), "minio: open %q", name)
	}
	return obj, nil
}

// Join implements storage.FS.Join.
func (f *FS) Join(elem ...string) string {
	return path.Join(elem...)
}

// Bucket returns the bucket name.
func (f *FS) Bucket() string {
	return f.bucket
}

func (f *FS) key(name string) string {
	k := strings.TrimPrefix(cleanPath(name), "/")
	if k == "." {
		k = ""
	}
	if f.prefix == "" {
		return k
	}
	if k == "" {
		return f.prefix
	}
	return f.prefix + "/" + k
}

func (f *FS) dirPrefix(dir string) string {
	k := f.key(dir)
	if k == "" {
		return ""
	}
	return k + "/"
}

func cleanPath(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(filepath.ToSlash(p))
}

func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.Wrap(fs.ErrNotExist, resp.Message)
	case "AccessDenied":
		return errors.Wrap(fs.ErrPermission, resp.Message)
	}
	return err
}

type fileInfo struct {
	name    string
	size    int64
	modTime time.Time
	mode    fs.FileMode
}

func newFileInfo(name string, size int64, modTime time.Time) *fileInfo {
	return &fileInfo{name: name, size: size, modTime: modTime, mode: 0o644}
}

func newDirInfo(name string) *fileInfo {
	return &fileInfo{name: name, mode: fs.ModeDir | 0o755}
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *fileInfo) Sys() interface{}   { return nil }

var _ storage.FS = (*FS)(nil)
