package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldFetch(t *testing.T) {
	pdfOnly := Config{ExtensionFilter: ".pdf"}
	all := Config{DownloadAll: true, ExtensionFilter: ".pdf"}

	tests := []struct {
		name  string
		entry Entry
		cfg   Config
		want  bool
	}{
		{"matching suffix", Entry{Kind: KindRegularFile, Name: "report.pdf"}, pdfOnly, true},
		{"suffix is case sensitive", Entry{Kind: KindRegularFile, Name: "report.PDF"}, pdfOnly, false},
		{"other extension", Entry{Kind: KindRegularFile, Name: "report.txt"}, pdfOnly, false},
		{"download all", Entry{Kind: KindRegularFile, Name: "report.txt"}, all, true},
		{"directory never fetched", Entry{Kind: KindDirectory, Name: "docs.pdf"}, all, false},
		{"symlink never fetched", Entry{Kind: KindSymlinkDir, Name: "latest.pdf"}, pdfOnly, false},
		{"unknown never fetched", Entry{Kind: KindUnknown, Name: "x.pdf"}, all, false},
		{"empty filter matches everything", Entry{Kind: KindRegularFile, Name: "a.bin"}, Config{}, true},
		{"filter without dot is literal", Entry{Kind: KindRegularFile, Name: "backup_pdf"}, Config{ExtensionFilter: "pdf"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldFetch(tt.entry, tt.cfg))
		})
	}
}
