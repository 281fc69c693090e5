package crawl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWalkerEndToEnd(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{"drwx 0 d1", "-rw 0 f1.txt", "-rw 0 f2.csv"}
	session.listings["d1"] = []string{"-rw 0 deep.txt"}
	fetcher := &recordingFetcher{}

	cfg := Config{MaxDepth: 2, ExtensionFilter: ".txt"}
	stats := NewWalker(session, fetcher, cfg, zap.NewNop()).Run(context.Background())

	assert.Equal(t, []string{"", "d1"}, session.listCalls)
	assert.Equal(t, []string{"f1.txt", "d1/deep.txt"}, fetcher.calls)
	assert.Equal(t, 2, stats.Listed)
	assert.Equal(t, 1, stats.Enqueued)
	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Iterations)
}

func TestWalkerStopsAtDepthBound(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{"drwx 0 d1", "-rw 0 f1.txt"}
	session.listings["d1"] = []string{"drwx 0 d2"}
	session.listings["d1/d2"] = []string{"-rw 0 never.txt"}
	fetcher := &recordingFetcher{}

	NewWalker(session, fetcher, Config{MaxDepth: 2, DownloadAll: true}, zap.NewNop()).Run(context.Background())

	assert.Equal(t, []string{"", "d1"}, session.listCalls)
	assert.Equal(t, []string{"f1.txt"}, fetcher.calls)
}

func TestWalkerZeroDepthListsNothing(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{"drwx 0 d1", "-rw 0 f1.txt"}
	fetcher := &recordingFetcher{}

	stats := NewWalker(session, fetcher, Config{MaxDepth: 0, DownloadAll: true}, zap.NewNop()).Run(context.Background())

	assert.Empty(t, session.listCalls)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, 0, stats.Iterations)
}

func TestWalkerListCountIsMinOfDepthAndTreeSize(t *testing.T) {
	newTree := func() *scriptedSession {
		s := newScriptedSession()
		s.listings[""] = []string{dirLine("a"), dirLine("b")}
		s.listings["a"] = []string{dirLine("c")}
		s.listings["b"] = nil
		s.listings["a/c"] = []string{fileLine("x.bin")}
		return s
	}

	for _, tt := range []struct {
		maxDepth int
		want     int
	}{
		{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 4}, {50, 4},
	} {
		session := newTree()
		NewWalker(session, &recordingFetcher{}, Config{MaxDepth: tt.maxDepth, DownloadAll: true}, zap.NewNop()).
			Run(context.Background())
		assert.Len(t, session.listCalls, tt.want, "maxDepth=%d", tt.maxDepth)
	}
}

func TestWalkerBreadthFirstOrder(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{dirLine("a"), dirLine("b")}
	session.listings["a"] = []string{dirLine("a1"), dirLine("a2")}
	session.listings["b"] = []string{dirLine("b1")}
	session.listings["a/a1"] = []string{dirLine("deep")}

	NewWalker(session, &recordingFetcher{}, Config{MaxDepth: 100}, zap.NewNop()).Run(context.Background())

	assert.Equal(t, []string{"", "a", "b", "a/a1", "a/a2", "b/b1", "a/a1/deep"}, session.listCalls)
}

func TestWalkerEnqueuesEachPathOnce(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{dirLine("pub"), linkLine("pub"), dirLine("pub"), linkLine("mirror")}
	session.listings["pub"] = []string{linkLine("loop")}
	session.listings["pub/loop"] = []string{linkLine("loop")}
	session.listings["mirror"] = nil

	stats := NewWalker(session, &recordingFetcher{}, Config{MaxDepth: 6}, zap.NewNop()).Run(context.Background())

	counts := map[string]int{}
	for _, p := range session.listCalls {
		counts[p]++
	}
	for p, n := range counts {
		assert.Equal(t, 1, n, "path %q listed %d times", p, n)
	}
	assert.Equal(t, []string{"", "pub", "mirror", "pub/loop", "pub/loop/loop"}, session.listCalls)
	assert.Equal(t, 4, stats.Enqueued)
}

func TestWalkerContinuesAfterListError(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{dirLine("one"), dirLine("two"), dirLine("three")}
	session.listErrs["one"] = errors.New("550 permission denied")
	session.listings["two"] = []string{fileLine("a.txt")}
	session.listings["three"] = []string{fileLine("b.txt")}

	core, logs := observer.New(zapcore.InfoLevel)
	fetcher := &recordingFetcher{}
	stats := NewWalker(session, fetcher, Config{MaxDepth: 10, DownloadAll: true}, zap.New(core)).
		Run(context.Background())

	assert.Equal(t, []string{"", "one", "two", "three"}, session.listCalls)
	assert.Equal(t, []string{"two/a.txt", "three/b.txt"}, fetcher.calls)
	assert.Equal(t, 1, stats.ListFailures)
	assert.Equal(t, 3, stats.Listed)

	errs := logs.FilterMessage("Error processing directory").All()
	if assert.Len(t, errs, 1) {
		assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
		assert.Equal(t, "one", errs[0].ContextMap()["path"])
	}
}

func TestWalkerFailedListingStillCountsTowardsDepth(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{dirLine("bad"), dirLine("good")}
	session.listErrs["bad"] = errors.New("timeout")
	session.listings["good"] = nil

	stats := NewWalker(session, &recordingFetcher{}, Config{MaxDepth: 2}, zap.NewNop()).Run(context.Background())

	assert.Equal(t, []string{"", "bad"}, session.listCalls)
	assert.Equal(t, 2, stats.Iterations)
}

func TestWalkerContinuesAfterFetchError(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{fileLine("a.txt"), fileLine("b.txt"), dirLine("d")}
	session.listings["d"] = []string{fileLine("c.txt")}
	fetcher := &recordingFetcher{fail: map[string]bool{"a.txt": true}}

	stats := NewWalker(session, fetcher, Config{MaxDepth: 5, ExtensionFilter: ".txt"}, zap.NewNop()).
		Run(context.Background())

	assert.Equal(t, []string{"a.txt", "b.txt", "d/c.txt"}, fetcher.calls)
	assert.Equal(t, 1, stats.FetchFailures)
	assert.Equal(t, 2, stats.Fetched)
}

func TestWalkerIgnoresUnknownEntries(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{"total 12", "", "crw-r--r-- 1 root tty 5, 0 Jan 1 00:00 tty", fileLine("ok.txt")}
	fetcher := &recordingFetcher{}

	stats := NewWalker(session, fetcher, Config{MaxDepth: 3, DownloadAll: true}, zap.NewNop()).Run(context.Background())

	assert.Equal(t, []string{"ok.txt"}, fetcher.calls)
	assert.Equal(t, 0, stats.Enqueued)
}

func TestWalkerFetchHook(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{fileLine("keep.pdf"), fileLine("drop.PDF")}

	got := map[string]Outcome{}
	hook := WithFetchHook(func(fullPath string, res Result) {
		got[fullPath] = res.Outcome
	})
	NewWalker(session, &recordingFetcher{}, Config{MaxDepth: 1, ExtensionFilter: ".pdf"}, zap.NewNop(), hook).
		Run(context.Background())

	assert.Equal(t, map[string]Outcome{
		"keep.pdf": OutcomeFetched,
		"drop.PDF": OutcomeSkipped,
	}, got)
}

func TestWalkerStartsAtRootPath(t *testing.T) {
	session := newScriptedSession()
	session.listings["pub"] = []string{dirLine("docs")}
	session.listings["pub/docs"] = nil

	NewWalker(session, &recordingFetcher{}, Config{RootPath: "pub", MaxDepth: 5}, zap.NewNop()).
		Run(context.Background())

	assert.Equal(t, []string{"pub", "pub/docs"}, session.listCalls)
}

func TestWalkerState(t *testing.T) {
	session := newScriptedSession()
	w := NewWalker(session, &recordingFetcher{}, Config{MaxDepth: 1}, zap.NewNop())
	assert.Equal(t, StateIdle, w.State())
	w.Run(context.Background())
	assert.Equal(t, StateCompleted, w.State())
}

func TestWalkerCancelledContext(t *testing.T) {
	session := newScriptedSession()
	session.listings[""] = []string{dirLine("a")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := NewWalker(session, &recordingFetcher{}, Config{MaxDepth: 5}, zap.NewNop()).Run(ctx)

	assert.True(t, stats.Cancelled)
	assert.Empty(t, session.listCalls)
}

func TestWalkerLogsCompletion(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewWalker(newScriptedSession(), &recordingFetcher{}, Config{MaxDepth: 1}, zap.New(core)).
		Run(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("Processing completed.").Len())
}
