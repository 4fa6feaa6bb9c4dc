package prometheus

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "molsig"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	require.Error(t, err)
}

func TestRegisterCounter_RecordsAndExposes(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("widgets_total", "Widgets seen", "kind")
	counter.WithLabelValues("round").Inc()
	counter.WithLabelValues("round").Add(2)

	body := scrape(t, c)
	assert.Contains(t, body, "molsig_widgets_total")
	assert.Contains(t, body, `kind="round"`)
}

func TestRegister_Deduplicates(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dup_total", "dup", "a")
	second := c.RegisterCounter("dup_total", "dup", "a")

	first.WithLabelValues("x").Inc()
	second.WithLabelValues("x").Inc()

	// Both handles feed the same underlying metric.
	body := scrape(t, c)
	assert.Contains(t, body, `molsig_dup_total{a="x"} 2`)
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)

	g := c.RegisterGauge("pool_size", "Pool size", "pool")
	g.WithLabelValues("main").Set(7)
	g.WithLabelValues("main").Dec()

	h := c.RegisterHistogram("op_seconds", "Operation duration", nil, "op")
	h.WithLabelValues("fill").Observe(0.25)

	body := scrape(t, c)
	assert.Contains(t, body, `molsig_pool_size{pool="main"} 6`)
	assert.Contains(t, body, "molsig_op_seconds_bucket")
}

func TestTimer_Observes(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer_seconds", "Timer", nil)

	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	timer.ObserveDuration()

	body := scrape(t, c)
	assert.Contains(t, body, "molsig_timer_seconds_count 1")
}

func TestTimer_NilHistogramIsSafe(t *testing.T) {
	timer := NewTimer(nil)
	assert.NotPanics(t, func() { timer.ObserveDuration() })
}

func TestNewAppMetrics_AllRegistered(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordHTTPRequest(m, "GET", "/api/v1/alphabet", "200", 12*time.Millisecond)
	RecordFillOutcome(m, 10, 1, 2)
	RecordAlphabetSize(m, "default", 128, 90)
	RecordCacheAccess(m, "signatures", true)
	RecordCacheAccess(m, "signatures", false)
	RecordError(m, "worker", "parse")

	body := scrape(t, c)
	assert.Contains(t, body, "molsig_http_requests_total")
	assert.Contains(t, body, `molsig_fill_molecules_total{outcome="processed"} 10`)
	assert.Contains(t, body, `molsig_alphabet_entries{alphabet="default"} 128`)
	assert.Contains(t, body, `molsig_cache_hits_total{cache="signatures"} 1`)
	assert.Contains(t, body, `molsig_errors_total{component="worker",error_type="parse"} 1`)
}
