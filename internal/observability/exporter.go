package observability

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter serves metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	registry *Registry
}

func NewPrometheusExporter(registry *Registry) *PrometheusExporter {
	return &PrometheusExporter{registry: registry}
}

// ServeHTTP implements http.Handler for the /metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(e.Format()))
}

// Format renders every metric:
//
//	# HELP <name> <help>
//	# TYPE <name> <type>
//	<name>{labels} <value>
func (e *PrometheusExporter) Format() string {
	var b strings.Builder
	r := e.registry

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		writeHeader(&b, c.name, c.help, MetricCounter)
		fmt.Fprintf(&b, "%s %d\n\n", c.name, c.Value())
	}

	for _, name := range sortedKeys(r.vecs) {
		v := r.vecs[name]
		writeHeader(&b, v.name, v.help, MetricCounter)
		for _, c := range v.snapshot() {
			fmt.Fprintf(&b, "%s%s %d\n", v.name, formatLabels(c.labels), c.Value())
		}
		b.WriteByte('\n')
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		writeHeader(&b, g.name, g.help, MetricGauge)
		fmt.Fprintf(&b, "%s %s\n\n", g.name, formatFloat(g.Value()))
	}

	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		buckets, counts, sum, count := h.snapshot()
		writeHeader(&b, h.name, h.help, MetricHistogram)
		for i, bound := range buckets {
			fmt.Fprintf(&b, "%s_bucket{le=%q} %d\n", h.name, formatFloat(bound), counts[i])
		}
		fmt.Fprintf(&b, "%s_bucket{le=\"+Inf\"} %d\n", h.name, count)
		fmt.Fprintf(&b, "%s_sum %s\n", h.name, formatFloat(sum))
		fmt.Fprintf(&b, "%s_count %d\n\n", h.name, count)
	}

	return b.String()
}

func writeHeader(b *strings.Builder, name, help string, typ MetricType) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, typ)
}

// formatLabels returns {k1="v1",k2="v2"} with keys sorted, or "" when empty.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return fmt.Sprintf("%g", v)
}
