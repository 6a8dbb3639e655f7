package prompush

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"csvingest/internal/metrics"
)

func TestNewBackend_RequiresGatewayURL(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("job", ""); err == nil {
		t.Fatal("expected error for empty gateway URL")
	}
}

func TestNewBackend_DefaultJobName(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("", "http://localhost:9091")
	if err != nil {
		t.Fatalf("NewBackend error: %v", err)
	}
	if b.jobName != "csvingest" {
		t.Fatalf("jobName = %q, want csvingest", b.jobName)
	}
}

func TestIncCounter_KnownAndUnknownNames(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("job", "http://localhost:9091")
	if err != nil {
		t.Fatalf("NewBackend error: %v", err)
	}

	lbls := metrics.Labels{"path": "fast", "status": "success"}
	b.IncCounter("ingest_runs_total", 1, lbls)
	b.IncCounter("ingest_runs_total", 2, lbls)
	b.IncCounter("ingest_rows_total", 10, metrics.Labels{"kind": "scanned"})
	b.IncCounter("no_such_metric", 5, nil)

	if got := testutil.ToFloat64(b.runCounter.WithLabelValues("fast", "success")); got != 3 {
		t.Fatalf("run counter = %v, want 3", got)
	}
	if got := testutil.ToFloat64(b.rowCounter.WithLabelValues("scanned")); got != 10 {
		t.Fatalf("row counter = %v, want 10", got)
	}
}

func TestFlush_PushesToGateway(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("job", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend error: %v", err)
	}
	b.IncCounter("ingest_rows_total", 7, metrics.Labels{"kind": "scanned"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if atomic.LoadInt32(&hits) == 0 {
		t.Fatal("expected at least one push request")
	}
}
