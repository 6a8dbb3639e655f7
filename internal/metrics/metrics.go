// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from ingestion runs.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) focused on counters and
//     duration-style observations.
//   - It provides a global, pluggable backend defaulting to a no-op, so
//     metric calls are always safe even when nothing is configured.
//   - Concrete metric systems live in subpackages (see prompush), so the
//     rest of the codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends. It is generic
// enough to plug in Prometheus, Datadog, or others.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes metrics if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics stay optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current
// one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordRun measures one ingestion invocation: latency plus a
// success/failure counter, labeled by the path that ran ("streaming" or
// "fast").
func RecordRun(job, path string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"path":   path,
		"status": status,
	}

	backend.IncCounter("ingest_runs_total", 1, lbls)
	backend.ObserveHistogram("ingest_run_duration_seconds", d.Seconds(), lbls)
}

// RecordRows adds to the per-kind row counter for the given job.
// Typical kinds: "scanned", "loaded".
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("ingest_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
