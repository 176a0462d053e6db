package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/portalberita/apiserver/config"
)

// LocalClient stores objects as files under a single directory. It is the
// default backend for development and single-node deployments; the directory
// is served over HTTP under /uploads.
type LocalClient struct {
	dir string
}

// NewLocalClient constructs a local disk backend from config.
func NewLocalClient(cfg config.UploadConfig) (*LocalClient, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("upload dir is required")
	}
	return &LocalClient{dir: cfg.Dir}, nil
}

// EnsureBucket creates the upload directory if it does not exist.
func (l *LocalClient) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes an object to the upload directory. Keys containing path
// separators are rejected so callers cannot escape the directory.
func (l *LocalClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := l.keyPath(key)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}

// Get opens a reader for an object in the upload directory.
func (l *LocalClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.keyPath(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes an object from the upload directory.
func (l *LocalClient) Delete(ctx context.Context, key string) error {
	path, err := l.keyPath(key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Bucket returns the upload directory.
func (l *LocalClient) Bucket() string {
	return l.dir
}

func (l *LocalClient) keyPath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(l.dir, key), nil
}
