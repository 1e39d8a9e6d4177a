package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores files under a directory on disk.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", abs, err)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute store directory.
func (l *Local) Root() string { return l.root }

func (l *Local) resolve(name string) (string, error) {
	p, err := clean(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(p)), nil
}

// Read opens the named file.
func (l *Local) Read(_ context.Context, name string) (io.ReadCloser, error) {
	full, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Write returns a writer backed by a temporary file in the target directory.
// Close renames it over the target; a failed write leaves the old file.
func (l *Local) Write(_ context.Context, name string) (io.WriteCloser, error) {
	full, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*")
	if err != nil {
		return nil, err
	}
	return &localWriter{tmp: tmp, target: full}, nil
}

// Delete removes the named file.
func (l *Local) Delete(_ context.Context, name string) error {
	full, err := l.resolve(name)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether the named file exists.
func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	full, err := l.resolve(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

type localWriter struct {
	tmp    *os.File
	target string
	err    error
	closed bool
}

func (w *localWriter) Write(p []byte) (int, error) {
	n, err := w.tmp.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}

func (w *localWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.tmp.Close(); err != nil && w.err == nil {
		w.err = err
	}
	if w.err != nil {
		os.Remove(w.tmp.Name())
		return w.err
	}
	if err := os.Rename(w.tmp.Name(), w.target); err != nil {
		os.Remove(w.tmp.Name())
		return err
	}
	return nil
}

var _ FileStore = (*Local)(nil)
