package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Local writes objects as files inside a single directory.
type Local struct {
	dir string
}

// NewLocal resolves dir to an absolute path. The directory itself is created
// by EnsureContainer.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "files"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return &Local{dir: abs}, nil
}

func (l *Local) EnsureContainer(ctx context.Context) error {
	// @todo receive mode from caller
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func (l *Local) OpenForWrite(ctx context.Context, name string) (Writer, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	localPath := filepath.Join(l.dir, name)
	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	return &localWriter{File: f}, nil
}

func (l *Local) Location() string {
	return l.dir
}

type localWriter struct {
	*os.File
}

func (w *localWriter) Abort() error {
	_ = w.File.Close()
	if err := os.Remove(w.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
