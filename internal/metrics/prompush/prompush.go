// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the common ingestion labels (job, path, status, kind) onto
//     Prometheus labels.
//   - Pushing collected metrics to a Pushgateway instead of exposing a
//     scrape endpoint, since ingestion runs are batch-shaped.
//
// All Prometheus-specific dependencies stay in this package so the rest
// of the project can swap to another backend without changes.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"csvingest/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	runCounter  *prometheus.CounterVec // "ingest_runs_total"
	runDuration *prometheus.SummaryVec // "ingest_run_duration_seconds"
	rowCounter  *prometheus.CounterVec // "ingest_rows_total"
}

// NewBackend constructs a Pushgateway backend. jobName groups pushes on
// the gateway; empty defaults to "csvingest".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "csvingest"
	}

	reg := prometheus.NewRegistry()

	runCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total ingestion invocations, partitioned by path and status.",
		},
		[]string{"path", "status"},
	)
	runDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "ingest_run_duration_seconds",
			Help:       "Duration of ingestion invocations in seconds, partitioned by path and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"path", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Row-level counts per kind (scanned, loaded, etc.).",
		},
		[]string{"kind"},
	)

	if err := reg.Register(runCounter); err != nil {
		return nil, fmt.Errorf("prompush: register run counter: %w", err)
	}
	if err := reg.Register(runDuration); err != nil {
		return nil, fmt.Errorf("prompush: register run summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}

	return &Backend{
		gatewayURL:  gatewayURL,
		jobName:     jobName,
		reg:         reg,
		runCounter:  runCounter,
		runDuration: runDuration,
		rowCounter:  rowCounter,
	}, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "ingest_runs_total":
		b.runCounter.WithLabelValues(labels["path"], labels["status"]).Add(delta)
	case "ingest_rows_total":
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "ingest_run_duration_seconds" {
		return
	}
	b.runDuration.WithLabelValues(labels["path"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
