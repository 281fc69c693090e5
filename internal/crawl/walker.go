// Package crawl walks a remote directory tree breadth-first over a single
// session and hands the selected regular files to a Fetcher.
package crawl

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yarkm13/seviper/internal/metrics"
)

// State is the lifecycle of a Walker.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Stats summarises one traversal.
type Stats struct {
	Iterations    int
	Listed        int
	ListFailures  int
	Enqueued      int
	Fetched       int
	AlreadyThere  int
	Skipped       int
	FetchFailures int
	Bytes         int64
	Cancelled     bool
}

// FetchHook observes every regular file the walker decides about.
type FetchHook func(fullPath string, res Result)

// Option configures a Walker.
type Option func(*Walker)

// WithFetchHook registers fn to be called after each regular-file decision.
func WithFetchHook(fn FetchHook) Option {
	return func(w *Walker) {
		w.onFetch = fn
	}
}

// Walker lists directories one at a time through a Session. Directories and
// symlinks are queued (symlinks are not resolved, only walked), regular files
// go through ShouldFetch and the Fetcher. A failing directory or file is
// logged and skipped.
type Walker struct {
	session Session
	fetcher Fetcher
	cfg     Config
	log     *zap.Logger
	onFetch FetchHook
	state   atomic.Int32
}

// NewWalker wires a walker. Nothing is contacted until Run.
func NewWalker(session Session, fetcher Fetcher, cfg Config, log *zap.Logger, opts ...Option) *Walker {
	w := &Walker{
		session: session,
		fetcher: fetcher,
		cfg:     cfg,
		log:     log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State reports where the walker is in its lifecycle.
func (w *Walker) State() State {
	return State(w.state.Load())
}

// Run performs the traversal. It stops when the queue is empty, when the
// number of dequeued directories reaches MaxDepth, or when ctx is cancelled
// between two directories. The depth counter counts dequeues rather than tree
// levels, so MaxDepth bounds how many directories get listed.
func (w *Walker) Run(ctx context.Context) Stats {
	w.state.Store(int32(StateRunning))
	defer w.state.Store(int32(StateCompleted))

	var stats Stats
	queue := NewQueue()
	queue.Seed(w.cfg.RootPath)
	depth := 0

	for queue.Len() > 0 && depth != w.cfg.MaxDepth {
		if ctx.Err() != nil {
			w.log.Warn("Traversal interrupted", zap.Error(ctx.Err()))
			stats.Cancelled = true
			break
		}
		w.log.Info("Processing level",
			zap.Int("level", depth),
			zap.Int("queued", queue.Len()))

		currentPath, err := queue.Dequeue()
		if err != nil {
			break
		}
		w.processDirectory(ctx, queue, currentPath, &stats)
		metrics.SetQueueDepth(queue.Len())

		depth++
		stats.Iterations = depth
	}

	w.log.Info("Processing completed.",
		zap.Int("listed", stats.Listed),
		zap.Int("fetched", stats.Fetched),
		zap.Int("pending", queue.Len()))
	return stats
}

func (w *Walker) processDirectory(ctx context.Context, queue *Queue, currentPath string, stats *Stats) {
	lines, err := w.session.ListDirectory(ctx, currentPath)
	if err != nil {
		metrics.RecordListing(false)
		stats.ListFailures++
		var listErr *ListError
		if !errors.As(err, &listErr) {
			err = &ListError{Path: currentPath, Err: err}
		}
		w.log.Error("Error processing directory", zap.String("path", displayPath(currentPath)), zap.Error(err))
		return
	}
	metrics.RecordListing(true)
	stats.Listed++

	for _, line := range lines {
		w.log.Debug("Checking entry", zap.String("entry", line))
		entry := ParseLine(line)
		metrics.RecordEntry(entry.Kind.String())
		if entry.Kind == KindUnknown {
			continue
		}
		fullPath := JoinPath(currentPath, entry.Name)

		switch entry.Kind {
		case KindDirectory:
			if queue.EnqueueIfNew(fullPath) {
				stats.Enqueued++
				w.log.Info("Directory found and added", zap.String("path", fullPath))
			}
		case KindSymlinkDir:
			if queue.EnqueueIfNew(fullPath) {
				stats.Enqueued++
				w.log.Info("Symbolic link found and added", zap.String("path", fullPath))
			}
		case KindRegularFile:
			w.log.Info("File found", zap.String("path", fullPath))
			w.handleFile(ctx, entry, fullPath, stats)
		}
	}
}

func (w *Walker) handleFile(ctx context.Context, entry Entry, fullPath string, stats *Stats) {
	if !ShouldFetch(entry, w.cfg) {
		stats.Skipped++
		w.log.Debug("File does not match the extension filter",
			zap.String("path", fullPath),
			zap.String("filter", w.cfg.ExtensionFilter))
		w.notify(fullPath, Result{Outcome: OutcomeSkipped})
		return
	}

	res, err := w.fetcher.Fetch(ctx, w.session, fullPath)
	if err != nil {
		// Already logged by the fetcher; the walk goes on.
		res.Outcome = OutcomeFailed
	}
	switch res.Outcome {
	case OutcomeFetched:
		stats.Fetched++
		stats.Bytes += res.Bytes
	case OutcomeAlreadyPresent:
		stats.AlreadyThere++
	default:
		stats.FetchFailures++
	}
	w.notify(fullPath, res)
}

func (w *Walker) notify(fullPath string, res Result) {
	if w.onFetch != nil {
		w.onFetch(fullPath, res)
	}
}
