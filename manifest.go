package main

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yarkm13/seviper/internal/crawl"
)

const manifestAutosaveInterval = 2 * time.Second

// Manifest status codes
const (
	statusFailed  = 0
	statusFetched = 1
	statusPresent = 2
	statusSkipped = 3
)

// ManifestItem is one file the walker made a decision about
type ManifestItem struct {
	Path   string
	Status int
}

// Manifest records every fetch decision of a run
type Manifest struct {
	SourceURL *url.URL
	Target    string
	Items     []ManifestItem
	mutex     sync.Mutex
	file      string
}

func newManifest(file string, source *url.URL, target string) *Manifest {
	return &Manifest{SourceURL: source, Target: target, file: file}
}

func manifestStatus(o crawl.Outcome) int {
	switch o {
	case crawl.OutcomeFetched:
		return statusFetched
	case crawl.OutcomeAlreadyPresent:
		return statusPresent
	case crawl.OutcomeSkipped:
		return statusSkipped
	default:
		return statusFailed
	}
}

// Record is a crawl.FetchHook.
func (m *Manifest) Record(fullPath string, res crawl.Result) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Items = append(m.Items, ManifestItem{Path: fullPath, Status: manifestStatus(res.Outcome)})
}

// Save writes the manifest through a temporary file so readers never see a
// half written one.
func (m *Manifest) Save() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	tmp := m.file + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, m.SourceURL)
	fmt.Fprintln(w, m.Target)
	for _, item := range m.Items {
		fmt.Fprintf(w, "%d:%s\n", item.Status, item.Path)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, m.file)
}

// autosave saves the manifest every interval until ctx is done.
func (m *Manifest) autosave(ctx context.Context, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Save(); err != nil {
				log.Warn("Error saving manifest", zap.String("file", m.file), zap.Error(err))
			}
		}
	}
}
