package main

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yarkm13/seviper/internal/crawl"
)

var summaryPrinter = message.NewPrinter(language.English)

// printSummary writes the end-of-run counts.
func printSummary(w io.Writer, stats crawl.Stats, location string) {
	p := summaryPrinter
	p.Fprintf(w, "\nDirectories listed: %d (%d failed)\n", stats.Listed, stats.ListFailures)
	p.Fprintf(w, "Files downloaded:   %d (%s)\n", stats.Fetched, humanBytes(stats.Bytes))
	p.Fprintf(w, "Already present:    %d\n", stats.AlreadyThere)
	p.Fprintf(w, "Skipped by filter:  %d\n", stats.Skipped)
	p.Fprintf(w, "Failed downloads:   %d\n", stats.FetchFailures)
	p.Fprintf(w, "Saved to:           %s\n", location)
	if stats.Cancelled {
		p.Fprintf(w, "Traversal was interrupted before it finished.\n")
	}
}

// humanBytes renders n with a binary unit suffix, e.g. 1.5 KiB.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return summaryPrinter.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return summaryPrinter.Sprintf("%.1f %siB", float64(n)/float64(div), string("KMGTPE"[exp]))
}
