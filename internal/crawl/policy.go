package crawl

import "strings"

// Config is fixed for the duration of one traversal.
type Config struct {
	RootPath        string
	MaxDepth        int
	DownloadAll     bool
	ExtensionFilter string
}

// ShouldFetch reports whether entry is a regular file selected by cfg.
// The extension match is a literal, case-sensitive suffix match.
func ShouldFetch(entry Entry, cfg Config) bool {
	if entry.Kind != KindRegularFile {
		return false
	}
	if cfg.DownloadAll {
		return true
	}
	return strings.HasSuffix(entry.Name, cfg.ExtensionFilter)
}
