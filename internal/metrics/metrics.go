// Package metrics provides Prometheus counters for a mirror run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	directoriesListed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seviper_directories_listed_total",
			Help: "Total number of directory listings requested",
		},
		[]string{"status"},
	)

	entriesSeen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seviper_entries_total",
			Help: "Total number of listing entries processed, by kind",
		},
		[]string{"kind"},
	)

	filesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seviper_files_fetched_total",
			Help: "Total number of fetch attempts, by outcome",
		},
		[]string{"outcome"},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seviper_bytes_downloaded_total",
			Help: "Total bytes written to storage",
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seviper_queue_depth",
			Help: "Directories waiting to be listed",
		},
	)
)

// RecordListing counts one directory listing.
func RecordListing(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	directoriesListed.WithLabelValues(status).Inc()
}

// RecordEntry counts one parsed listing entry.
func RecordEntry(kind string) {
	entriesSeen.WithLabelValues(kind).Inc()
}

// RecordFetch counts one fetch decision and the bytes it wrote.
func RecordFetch(outcome string, bytes int64) {
	filesFetched.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		bytesDownloaded.Add(float64(bytes))
	}
}

// SetQueueDepth reports the number of pending directories.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// WriteTextfile dumps the default registry in the node-exporter textfile format.
func WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer)
}
