package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Session is one live connection to the remote server. It keeps a single
// working-directory cursor on the peer, so calls must never be interleaved.
type Session interface {
	// ListDirectory returns the raw listing lines of path ("" is the
	// connection's current directory).
	ListDirectory(ctx context.Context, path string) ([]string, error)

	// RetrieveBinary streams the remote file at remotePath into w.
	RetrieveBinary(ctx context.Context, remotePath string, w io.Writer) error

	// CurrentDirectory reports the server-side working directory.
	CurrentDirectory() (string, error)
}

// ErrEmptyQueue is returned by Queue.Dequeue when nothing is pending.
var ErrEmptyQueue = errors.New("traversal queue is empty")

// ListError reports a directory that could not be listed.
type ListError struct {
	Path string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list %q: %v", displayPath(e.Path), e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// TransferError reports a file that could not be fetched.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("failed to fetch %q: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func displayPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}
