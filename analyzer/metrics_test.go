package analyzer

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistersAndCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.RecordFilingFetched("AAPL", "10-K", 120*time.Millisecond)
	m.RecordFilingFetched("AAPL", "10-K", 80*time.Millisecond)
	m.RecordChunksIndexed("AAPL", 42, 30*time.Millisecond)
	m.RecordSearch(5 * time.Millisecond)
	m.IngestStarted()
	m.RecordIngestError("MSFT", StageFetch)

	if got := testutil.ToFloat64(m.filingsFetched.WithLabelValues("AAPL", "10-K")); got != 2 {
		t.Errorf("filings_fetched_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.chunksIndexed.WithLabelValues("AAPL")); got != 42 {
		t.Errorf("chunks_indexed_total = %v, want 42", got)
	}
	if got := testutil.ToFloat64(m.searches); got != 1 {
		t.Errorf("searches_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.inflight); got != 1 {
		t.Errorf("inflight_tickers = %v, want 1", got)
	}
	m.IngestFinished()
	if got := testutil.ToFloat64(m.inflight); got != 0 {
		t.Errorf("inflight_tickers = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.ingestErrors.WithLabelValues("MSFT", StageFetch)); got != 1 {
		t.Errorf("ingest_errors_total = %v, want 1", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordFilingFetched("AAPL", "10-K", time.Millisecond)
	m.RecordChunksIndexed("AAPL", 1, time.Millisecond)
	m.RecordSearch(time.Millisecond)
	m.IngestStarted()
	m.IngestFinished()
	m.RecordIngestError("AAPL", StageIndex)
}
