package crawl

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/yarkm13/seviper/internal/metrics"
	"github.com/yarkm13/seviper/internal/storage"
)

// Outcome is what happened to one regular file.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeFetched
	OutcomeAlreadyPresent
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFetched:
		return "fetched"
	case OutcomeAlreadyPresent:
		return "already_present"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result describes a finished fetch.
type Result struct {
	Outcome Outcome
	Bytes   int64
}

// Fetcher downloads one remote file through the session.
type Fetcher interface {
	Fetch(ctx context.Context, session Session, fullPath string) (Result, error)
}

// Sink downloads remote files into a flat storage container, naming each
// object after the last segment of its remote path. Existing objects are
// never overwritten.
type Sink struct {
	store storage.Storage
	log   *zap.Logger
}

// NewSink returns a Sink writing into store.
func NewSink(store storage.Storage, log *zap.Logger) *Sink {
	return &Sink{store: store, log: log}
}

// Fetch downloads fullPath. An object that already exists counts as success.
// Failures are logged and returned wrapped in a TransferError; the caller is
// expected to carry on with the next entry.
func (s *Sink) Fetch(ctx context.Context, session Session, fullPath string) (Result, error) {
	filename := BaseName(fullPath)
	res, err := s.fetch(ctx, session, fullPath, filename)
	if res.Outcome == OutcomeFetched {
		metrics.RecordFetch(res.Outcome.String(), res.Bytes)
	} else {
		metrics.RecordFetch(res.Outcome.String(), 0)
	}
	if err != nil {
		s.log.Warn("Error downloading file",
			zap.String("file", filename),
			zap.String("path", fullPath),
			zap.Error(err))
		return res, &TransferError{Path: fullPath, Err: err}
	}
	if res.Outcome == OutcomeFetched {
		s.log.Info("File downloaded successfully",
			zap.String("file", filename),
			zap.Int64("bytes", res.Bytes))
	}
	return res, nil
}

func (s *Sink) fetch(ctx context.Context, session Session, fullPath, filename string) (Result, error) {
	if err := s.store.EnsureContainer(ctx); err != nil {
		return Result{Outcome: OutcomeFailed}, err
	}

	w, err := s.store.OpenForWrite(ctx, filename)
	if errors.Is(err, storage.ErrAlreadyExists) {
		s.log.Debug("File already present, not fetching again", zap.String("file", filename))
		return Result{Outcome: OutcomeAlreadyPresent}, nil
	}
	if err != nil {
		return Result{Outcome: OutcomeFailed}, err
	}

	cw := &countingWriter{w: w}
	if err := session.RetrieveBinary(ctx, fullPath, cw); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			s.log.Warn("Could not discard partial file", zap.String("file", filename), zap.Error(abortErr))
		}
		return Result{Outcome: OutcomeFailed, Bytes: cw.n}, err
	}
	if err := w.Close(); err != nil {
		_ = w.Abort()
		return Result{Outcome: OutcomeFailed, Bytes: cw.n}, err
	}
	return Result{Outcome: OutcomeFetched, Bytes: cw.n}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
