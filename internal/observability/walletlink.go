package observability

import (
	"strconv"
	"time"
)

// WalletLinkMetrics is the standard metric set of the analysis service. It
// receives analyzer outcomes and provider request observations.
type WalletLinkMetrics struct {
	Registry *Registry

	Analyses         *Counter
	AnalysisErrors   *Counter
	BranchFailures   *Counter
	ProviderRequests *CounterVec
	RateLimited      *Counter
	InFlight         *Gauge
	AnalysisLatency  *Histogram
	ProviderLatency  *Histogram
}

// NewWalletLinkMetrics registers the standard metrics on a fresh registry.
func NewWalletLinkMetrics() *WalletLinkMetrics {
	r := NewRegistry()
	return &WalletLinkMetrics{
		Registry: r,
		Analyses: r.NewCounter("walletlink_analyses_total",
			"Total wallet analyses run"),
		AnalysisErrors: r.NewCounter("walletlink_analysis_errors_total",
			"Analyses that ended in an error result"),
		BranchFailures: r.NewCounter("walletlink_hop2_branch_failures_total",
			"Hop-2 expansions that failed or timed out"),
		ProviderRequests: r.NewCounterVec("walletlink_provider_requests_total",
			"Transaction provider HTTP requests", "method", "status"),
		RateLimited: r.NewCounter("walletlink_provider_rate_limited_total",
			"Provider responses with HTTP 429"),
		InFlight: r.NewGauge("walletlink_analyses_in_flight",
			"Analyses currently running"),
		AnalysisLatency: r.NewHistogram("walletlink_analysis_latency_ms",
			"End-to-end analysis latency in milliseconds", DefaultLatencyBuckets),
		ProviderLatency: r.NewHistogram("walletlink_provider_latency_ms",
			"Provider request latency in milliseconds", DefaultLatencyBuckets),
	}
}

// ObserveAnalysis records one finished analysis.
func (m *WalletLinkMetrics) ObserveAnalysis(elapsed time.Duration, failed bool) {
	m.Analyses.Inc()
	if failed {
		m.AnalysisErrors.Inc()
	}
	m.AnalysisLatency.ObserveDuration(elapsed)
}

// ObserveBranchFailure records a hop-2 branch that contributed nothing.
func (m *WalletLinkMetrics) ObserveBranchFailure() {
	m.BranchFailures.Inc()
}

// ObserveProviderRequest records one provider round trip. Status 0 means
// the request never got a response.
func (m *WalletLinkMetrics) ObserveProviderRequest(method string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.ProviderRequests.With(method, code).Inc()
	if status == 429 {
		m.RateLimited.Inc()
	}
	m.ProviderLatency.ObserveDuration(elapsed)
}

// Track marks an analysis as started; call the returned func when it ends.
func (m *WalletLinkMetrics) Track() func() {
	m.InFlight.Add(1)
	return func() { m.InFlight.Add(-1) }
}
