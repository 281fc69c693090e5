// Package storage persists downloaded files to a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrAlreadyExists is returned by OpenForWrite when the target object is
// already present. Callers treat it as success.
var ErrAlreadyExists = errors.New("object already exists")

// Writer receives the bytes of one object. Close commits it; Abort discards
// whatever was written so a failed transfer leaves nothing behind.
type Writer interface {
	io.WriteCloser
	Abort() error
}

// Storage is the destination of a mirror run.
type Storage interface {
	// EnsureContainer creates the destination directory or bucket if needed.
	// It is safe to call repeatedly.
	EnsureContainer(ctx context.Context) error

	// OpenForWrite opens name for writing, or returns ErrAlreadyExists.
	OpenForWrite(ctx context.Context, name string) (Writer, error)

	// Location describes the destination for logs and prompts.
	Location() string
}

// Options carries backend-specific settings.
type Options struct {
	S3 S3Config
}

// Open returns the backend for target: "s3://bucket/prefix" selects S3,
// anything else is a local directory.
func Open(ctx context.Context, target string, opts Options) (Storage, error) {
	if rest, ok := strings.CutPrefix(target, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("invalid s3 target %q: missing bucket", target)
		}
		cfg := opts.S3
		cfg.Bucket = bucket
		cfg.Prefix = strings.Trim(prefix, "/")
		return NewS3(ctx, cfg)
	}
	return NewLocal(target)
}
