package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------
// Metric primitives
// -----------------------------------------------------------------------

func TestCounter_IncAndAdd(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("test_counter", "A test counter")

	assert.EqualValues(t, 0, c.Value())
	c.Inc()
	c.Inc()
	c.Add(3)
	assert.EqualValues(t, 5, c.Value())

	c.Add(-10)
	assert.EqualValues(t, 5, c.Value())

	assert.Same(t, c, r.NewCounter("test_counter", "ignored"))
}

func TestCounter_ConcurrentAccess(t *testing.T) {
	c := NewRegistry().NewCounter("concurrent_counter", "")

	var wg sync.WaitGroup
	n := 1000
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, n, c.Value())
}

func TestCounterVec(t *testing.T) {
	v := NewRegistry().NewCounterVec("reqs_total", "requests", "method", "status")
	v.With("history", "200").Inc()
	v.With("history", "200").Inc()
	v.With("history", "429").Inc()
	v.With("getBalance").Inc()

	assert.EqualValues(t, 2, v.With("history", "200").Value())
	assert.EqualValues(t, 4, v.Total())
	assert.Equal(t, map[string]string{"method": "getBalance", "status": ""}, v.With("getBalance").labels)
}

func TestGauge_SetAndAdd(t *testing.T) {
	g := NewRegistry().NewGauge("test_gauge", "A test gauge")
	assert.Equal(t, 0.0, g.Value())

	g.Set(42.5)
	assert.Equal(t, 42.5, g.Value())
	g.Add(-2.5)
	assert.Equal(t, 40.0, g.Value())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Add(1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 140.0, g.Value())
}

func TestHistogram_ObserveAndQuantile(t *testing.T) {
	h := NewRegistry().NewHistogram("lat", "latency", []float64{100, 10, 50})
	assert.Equal(t, 0.0, h.Quantile(0.5))

	for _, v := range []float64{5, 5, 20, 20, 80} {
		h.Observe(v)
	}
	assert.EqualValues(t, 5, h.Count())

	buckets, counts, sum, count := h.snapshot()
	assert.Equal(t, []float64{10, 50, 100}, buckets)
	assert.Equal(t, []int64{2, 4, 5}, counts)
	assert.Equal(t, 130.0, sum)
	assert.EqualValues(t, 5, count)

	// rank 2.5 falls in (10,50] holding ranks 3..4
	assert.InDelta(t, 20.0, h.Quantile(0.5), 1e-9)
	assert.Equal(t, 100.0, h.Quantile(1))
	assert.Equal(t, 0.0, h.Quantile(1.5))
}

func TestHistogram_ObserveDuration(t *testing.T) {
	h := NewRegistry().NewHistogram("lat", "latency", DefaultLatencyBuckets)
	h.ObserveDuration(1500 * time.Millisecond)
	_, _, sum, _ := h.snapshot()
	assert.Equal(t, 1500.0, sum)
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("b_total", "").Inc()
	r.NewCounter("a_total", "")
	r.NewCounterVec("c_total", "", "k").With("x").Add(7)
	r.NewGauge("g", "").Set(3)
	r.NewHistogram("h", "", []float64{1}).Observe(0.5)

	entries := r.Snapshot()
	require.Len(t, entries, 5)
	assert.Equal(t, "a_total", entries[0].Name)
	assert.Equal(t, "b_total", entries[1].Name)
	assert.Equal(t, 1.0, entries[1].Value)
	assert.Equal(t, map[string]string{"k": "x"}, entries[2].Labels)
	assert.Equal(t, 7.0, entries[2].Value)
	assert.Equal(t, MetricGauge, entries[3].Type)
	assert.Equal(t, MetricHistogram, entries[4].Type)
}

// -----------------------------------------------------------------------
// WalletLinkMetrics
// -----------------------------------------------------------------------

func TestWalletLinkMetrics(t *testing.T) {
	m := NewWalletLinkMetrics()

	m.ObserveAnalysis(120*time.Millisecond, false)
	m.ObserveAnalysis(80*time.Millisecond, true)
	m.ObserveBranchFailure()
	m.ObserveProviderRequest("history", 200, 30*time.Millisecond)
	m.ObserveProviderRequest("history", 429, 5*time.Millisecond)
	m.ObserveProviderRequest("getBalance", 0, time.Millisecond)

	assert.EqualValues(t, 2, m.Analyses.Value())
	assert.EqualValues(t, 1, m.AnalysisErrors.Value())
	assert.EqualValues(t, 1, m.BranchFailures.Value())
	assert.EqualValues(t, 1, m.RateLimited.Value())
	assert.EqualValues(t, 3, m.ProviderRequests.Total())
	assert.EqualValues(t, 1, m.ProviderRequests.With("getBalance", "error").Value())
	assert.EqualValues(t, 2, m.AnalysisLatency.Count())

	done := m.Track()
	assert.Equal(t, 1.0, m.InFlight.Value())
	done()
	assert.Equal(t, 0.0, m.InFlight.Value())
}

// -----------------------------------------------------------------------
// Prometheus exporter
// -----------------------------------------------------------------------

func TestPrometheusExporter_Format(t *testing.T) {
	m := NewWalletLinkMetrics()
	m.ObserveAnalysis(300*time.Millisecond, false)
	m.ObserveProviderRequest("history", 200, 40*time.Millisecond)

	out := NewPrometheusExporter(m.Registry).Format()

	assert.Contains(t, out, "# HELP walletlink_analyses_total Total wallet analyses run\n")
	assert.Contains(t, out, "# TYPE walletlink_analyses_total counter\n")
	assert.Contains(t, out, "walletlink_analyses_total 1\n")
	assert.Contains(t, out, `walletlink_provider_requests_total{method="history",status="200"} 1`)
	assert.Contains(t, out, "# TYPE walletlink_analysis_latency_ms histogram\n")
	assert.Contains(t, out, `walletlink_analysis_latency_ms_bucket{le="250"} 0`)
	assert.Contains(t, out, `walletlink_analysis_latency_ms_bucket{le="500"} 1`)
	assert.Contains(t, out, `walletlink_analysis_latency_ms_bucket{le="+Inf"} 1`)
	assert.Contains(t, out, "walletlink_analysis_latency_ms_sum 300\n")
	assert.Contains(t, out, "walletlink_analysis_latency_ms_count 1\n")
	assert.Contains(t, out, "walletlink_analyses_in_flight 0\n")
}

func TestPrometheusExporter_ServeHTTP(t *testing.T) {
	m := NewWalletLinkMetrics()
	m.ObserveBranchFailure()

	rec := httptest.NewRecorder()
	NewPrometheusExporter(m.Registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "walletlink_hop2_branch_failures_total 1")
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1", formatFloat(1))
	assert.Equal(t, "0.25", formatFloat(0.25))
	assert.Equal(t, "+Inf", formatFloat(posInf()))
	assert.Equal(t, "", formatLabels(nil))
	assert.Equal(t, `{a="1",b="2"}`, formatLabels(map[string]string{"b": "2", "a": "1"}))
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}

// -----------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------

func TestHealthChecker_Aggregate(t *testing.T) {
	h := NewHealthChecker(time.Second)
	h.Register("classifier", StaticCheck(map[string]any{"entities": 10}))
	h.Register("provider", ErrorCheck(func(context.Context) error { return nil }, 0))

	got := h.Check(context.Background())
	assert.Equal(t, StatusHealthy, got.Status)
	assert.Len(t, got.Components, 2)
	assert.Equal(t, "provider", got.Components["provider"].Name)
	assert.Equal(t, []string{"classifier", "provider"}, h.Names())

	h.Register("provider", ErrorCheck(func(context.Context) error { return errors.New("down") }, 0))
	got = h.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, got.Status)
	assert.Equal(t, "down", got.Components["provider"].Message)
}

func TestHealthChecker_DegradedAndTimeout(t *testing.T) {
	h := NewHealthChecker(50 * time.Millisecond)
	h.Register("slow", ErrorCheck(func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}, time.Millisecond))
	h.Register("hung", ErrorCheck(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 0))

	got := h.Check(context.Background())
	assert.Equal(t, StatusDegraded, got.Components["slow"].Status)
	assert.Equal(t, StatusUnhealthy, got.Components["hung"].Status)
	assert.Equal(t, StatusUnhealthy, got.Status)
}
