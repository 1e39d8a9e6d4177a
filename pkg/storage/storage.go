// Package storage persists checkpoints and generated audio.
//
// A FileStore maps forward-slash paths onto a backend: a directory on local
// disk or a bucket in an S3-compatible object store. Writes become visible
// only when the writer is closed, so a reader never observes a half-written
// checkpoint.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrInvalidPath is returned for empty paths and paths that leave the root.
var ErrInvalidPath = errors.New("storage: invalid path")

// FileStore reads and writes whole files.
//
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file. A missing file yields an error wrapping
	// os.ErrNotExist. The caller closes the reader.
	Read(ctx context.Context, name string) (io.ReadCloser, error)

	// Write opens the named file for writing. The content replaces any
	// previous file when the writer is closed.
	Write(ctx context.Context, name string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, name string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// Config selects a backend. Exactly one of Dir or S3 is set.
type Config struct {
	Dir string    `yaml:"dir,omitempty" json:"dir,omitempty"`
	S3  *S3Config `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// Open builds the FileStore described by cfg.
func Open(cfg Config) (FileStore, error) {
	switch {
	case cfg.S3 != nil && cfg.Dir != "":
		return nil, errors.New("storage: both dir and s3 are configured")
	case cfg.S3 != nil:
		if cfg.S3.Bucket == "" {
			return nil, errors.New("storage: s3 bucket is required")
		}
		return NewS3(NewS3Client(*cfg.S3), cfg.S3.Bucket, cfg.S3.Prefix), nil
	case cfg.Dir != "":
		return NewLocal(cfg.Dir)
	}
	return nil, errors.New("storage: no backend configured")
}

// ReadFile reads the named file in full.
func ReadFile(ctx context.Context, fs FileStore, name string) ([]byte, error) {
	r, err := fs.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// WriteFile replaces the named file with data.
func WriteFile(ctx context.Context, fs FileStore, name string, data []byte) error {
	w, err := fs.Write(ctx, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	return w.Close()
}

// clean validates a store path and returns its canonical form.
func clean(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidPath
	}
	p := path.Clean(strings.TrimPrefix(name, "/"))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return p, nil
}
