package prometheus

import (
	"time"
)

// AppMetrics holds every metric the platform records, grouped by layer.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Signature layer
	MoleculesProcessedTotal CounterVec
	SignatureFailuresTotal  CounterVec
	SignatureDuration       HistogramVec

	// Alphabet layer
	AlphabetEntries       GaugeVec
	AlphabetOccupiedBits  GaugeVec
	FillDuration          HistogramVec
	FillMoleculesTotal    CounterVec
	MergeDuration         HistogramVec
	ActiveFillWorkers     GaugeVec

	// Infrastructure layer
	DBQueryDuration  HistogramVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	ConsumedMessages CounterVec

	// System health
	ErrorsTotal CounterVec
}

// Default buckets by workload shape.
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultFillDurationBuckets = []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600}
	DefaultDBDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all platform metrics against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Signature
	m.MoleculesProcessedTotal = collector.RegisterCounter("molecules_processed_total", "Molecules processed by signature extraction", "status")
	m.SignatureFailuresTotal = collector.RegisterCounter("signature_failures_total", "Molecules whose signature could not be computed", "reason")
	m.SignatureDuration = collector.RegisterHistogram("signature_duration_seconds", "Per-molecule signature computation duration", DefaultDBDurationBuckets, "radius")

	// Alphabet
	m.AlphabetEntries = collector.RegisterGauge("alphabet_entries", "Distinct (bit, signature) pairs in the alphabet", "alphabet")
	m.AlphabetOccupiedBits = collector.RegisterGauge("alphabet_occupied_bits", "Fingerprint bits with at least one signature", "alphabet")
	m.FillDuration = collector.RegisterHistogram("fill_duration_seconds", "Alphabet fill pass duration", DefaultFillDurationBuckets, "mode")
	m.FillMoleculesTotal = collector.RegisterCounter("fill_molecules_total", "Molecules seen by fill passes", "outcome")
	m.MergeDuration = collector.RegisterHistogram("merge_duration_seconds", "Alphabet merge duration", DefaultDBDurationBuckets, "alphabet")
	m.ActiveFillWorkers = collector.RegisterGauge("active_fill_workers", "Workers currently filling alphabet shards", "job")

	// Infrastructure
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.ConsumedMessages = collector.RegisterCounter("consumed_messages_total", "Messages consumed from the molecule stream", "topic", "status")

	// System health
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Recording helpers
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(m *AppMetrics, method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFillOutcome counts the processed/skipped/failed tallies of one fill
// report into the fill counter.
func RecordFillOutcome(m *AppMetrics, processed, skipped, failed int) {
	m.FillMoleculesTotal.WithLabelValues("processed").Add(float64(processed))
	m.FillMoleculesTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.FillMoleculesTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordAlphabetSize publishes the current entry and bit counts for a named
// alphabet.
func RecordAlphabetSize(m *AppMetrics, name string, entries, bits int) {
	m.AlphabetEntries.WithLabelValues(name).Set(float64(entries))
	m.AlphabetOccupiedBits.WithLabelValues(name).Set(float64(bits))
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(m *AppMetrics, component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
