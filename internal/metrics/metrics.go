// Package metrics holds the Prometheus collectors of a broom run.
//
// broom is a one-shot command, so nothing is served over HTTP. Collectors are
// registered on a private registry that can be written out in the textfile
// collector format for node_exporter.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// Registry holds every broom collector.
	Registry *prometheus.Registry

	// MatchesTotal counts artifacts found, by category.
	MatchesTotal *prometheus.CounterVec

	// RemovalsTotal counts what happened to each match, by category and action.
	RemovalsTotal *prometheus.CounterVec

	// WalkErrorsTotal counts directories that could not be listed.
	WalkErrorsTotal prometheus.Counter

	// DeleteFailuresTotal counts removals the deleter reported as failed.
	DeleteFailuresTotal prometheus.Counter

	// BytesReclaimedTotal counts measured bytes of removed artifacts.
	BytesReclaimedTotal prometheus.Counter

	// RunDuration tracks how long a run took.
	RunDuration prometheus.Histogram

	// LastRunTimestamp records the Unix time of the last completed run.
	LastRunTimestamp prometheus.Gauge

	// FilesystemFreeBytes is the free space of each root's filesystem after a run.
	FilesystemFreeBytes *prometheus.GaugeVec
)

// Init creates and registers the collectors. It is safe to call repeatedly.
func Init() {
	initOnce.Do(func() {
		Registry = prometheus.NewRegistry()

		MatchesTotal = NewCounterVec(
			"broom_matches_total",
			"Artifacts found, by category.",
			[]string{"category"},
		)
		RemovalsTotal = NewCounterVec(
			"broom_removals_total",
			"Matches handled, by category and action (delete, dry_run, skip).",
			[]string{"category", "action"},
		)
		WalkErrorsTotal = NewCounter(
			"broom_walk_errors_total",
			"Directories that could not be listed.",
		)
		DeleteFailuresTotal = NewCounter(
			"broom_delete_failures_total",
			"Removals that failed; the run continues past them.",
		)
		BytesReclaimedTotal = NewCounter(
			"broom_bytes_reclaimed_total",
			"Measured bytes of removed artifacts.",
		)
		RunDuration = NewDurationHistogram(
			"broom_run_duration_seconds",
			"Duration of a broom run in seconds.",
		)
		LastRunTimestamp = NewGauge(
			"broom_last_run_timestamp_seconds",
			"Unix time of the last completed run.",
		)
		FilesystemFreeBytes = NewGaugeVec(
			"broom_filesystem_free_bytes",
			"Free bytes on the filesystem of each root after the run.",
			[]string{"root"},
		)

		Registry.MustRegister(
			MatchesTotal,
			RemovalsTotal,
			WalkErrorsTotal,
			DeleteFailuresTotal,
			BytesReclaimedTotal,
			RunDuration,
			LastRunTimestamp,
			FilesystemFreeBytes,
		)
	})
}

// RecordMatch counts one match under each of categories.
func RecordMatch(categories []string) {
	for _, c := range categories {
		MatchesTotal.WithLabelValues(c).Inc()
	}
}

// RecordRemoval counts the action taken for one match.
func RecordRemoval(categories []string, action string) {
	for _, c := range categories {
		RemovalsTotal.WithLabelValues(c, action).Inc()
	}
}

// RecordWalkErrors adds n listing failures.
func RecordWalkErrors(n int) {
	WalkErrorsTotal.Add(float64(n))
}

// AddBytesReclaimed adds measured bytes of a removed artifact.
func AddBytesReclaimed(n int64) {
	BytesReclaimedTotal.Add(float64(n))
}

// SetFreeBytes records free space for a root.
func SetFreeBytes(root string, free int64) {
	FilesystemFreeBytes.WithLabelValues(root).Set(float64(free))
}

// RecordRun observes a completed run that started at start.
func RecordRun(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
}

// WriteTextfile writes every collector to path atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
