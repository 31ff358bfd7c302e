package analyzer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for pipeline runs.
//
// All metrics use the "secfiling" namespace:
//
//   - filings_fetched_total (counter): filings retrieved from EDGAR,
//     labeled by ticker and form.
//   - fetch_latency_ms (histogram): EDGAR fetch duration per filing,
//     labeled by ticker.
//   - chunks_indexed_total (counter): chunks written to the index,
//     labeled by ticker.
//   - index_latency_ms (histogram): index write duration per batch.
//   - searches_total (counter): similarity searches served.
//   - search_latency_ms (histogram): search duration.
//   - inflight_tickers (gauge): tickers currently being ingested.
//   - ingest_errors_total (counter): per-ticker ingest failures,
//     labeled by ticker and stage.
//
// Expose them by handing the registry to promhttp:
//
//	registry := prometheus.NewRegistry()
//	metrics := analyzer.NewMetrics(registry)
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type Metrics struct {
	filingsFetched *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	chunksIndexed  *prometheus.CounterVec
	indexLatency   prometheus.Histogram
	searches       prometheus.Counter
	searchLatency  prometheus.Histogram
	inflight       prometheus.Gauge
	ingestErrors   *prometheus.CounterVec

	enabled bool
}

// NewMetrics creates and registers the pipeline metrics. A nil registry
// uses the default global registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	latencyBuckets := []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000}

	return &Metrics{
		enabled: true,
		filingsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secfiling",
			Name:      "filings_fetched_total",
			Help:      "Filings retrieved from EDGAR",
		}, []string{"ticker", "form"}),
		fetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "secfiling",
			Name:      "fetch_latency_ms",
			Help:      "EDGAR fetch duration per filing in milliseconds",
			Buckets:   latencyBuckets,
		}, []string{"ticker"}),
		chunksIndexed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secfiling",
			Name:      "chunks_indexed_total",
			Help:      "Chunks embedded and written to the index",
		}, []string{"ticker"}),
		indexLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "secfiling",
			Name:      "index_latency_ms",
			Help:      "Index write duration per filing batch in milliseconds",
			Buckets:   latencyBuckets,
		}),
		searches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "secfiling",
			Name:      "searches_total",
			Help:      "Similarity searches served",
		}),
		searchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "secfiling",
			Name:      "search_latency_ms",
			Help:      "Similarity search duration in milliseconds",
			Buckets:   latencyBuckets,
		}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "secfiling",
			Name:      "inflight_tickers",
			Help:      "Tickers currently being ingested",
		}),
		ingestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secfiling",
			Name:      "ingest_errors_total",
			Help:      "Per-ticker ingest failures",
		}, []string{"ticker", "stage"}),
	}
}

// RecordFilingFetched counts a retrieved filing and its fetch latency.
func (m *Metrics) RecordFilingFetched(ticker, form string, latency time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	m.filingsFetched.WithLabelValues(ticker, form).Inc()
	m.fetchLatency.WithLabelValues(ticker).Observe(float64(latency.Milliseconds()))
}

// RecordChunksIndexed counts chunks written for a ticker and the batch
// write latency.
func (m *Metrics) RecordChunksIndexed(ticker string, count int, latency time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	m.chunksIndexed.WithLabelValues(ticker).Add(float64(count))
	m.indexLatency.Observe(float64(latency.Milliseconds()))
}

// RecordSearch counts a similarity search and its latency.
func (m *Metrics) RecordSearch(latency time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	m.searches.Inc()
	m.searchLatency.Observe(float64(latency.Milliseconds()))
}

// IngestStarted marks a ticker ingest as in flight.
func (m *Metrics) IngestStarted() {
	if m == nil || !m.enabled {
		return
	}
	m.inflight.Inc()
}

// IngestFinished marks a ticker ingest as done.
func (m *Metrics) IngestFinished() {
	if m == nil || !m.enabled {
		return
	}
	m.inflight.Dec()
}

// RecordIngestError counts a per-ticker failure at the given stage
// (fetch, embed, index).
func (m *Metrics) RecordIngestError(ticker, stage string) {
	if m == nil || !m.enabled {
		return
	}
	m.ingestErrors.WithLabelValues(ticker, stage).Inc()
}
