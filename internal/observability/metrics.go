package observability

import (
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType identifies the kind of metric.
type MetricType string

const (
	MetricCounter   MetricType = "counter"
	MetricGauge     MetricType = "gauge"
	MetricHistogram MetricType = "histogram"
)

// MetricEntry is a point-in-time view of one series, used by /stats.
type MetricEntry struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
}

// -----------------------------------------------------------------------
// Counter
// -----------------------------------------------------------------------

// Counter is a monotonically increasing integer counter.
type Counter struct {
	name   string
	help   string
	labels map[string]string
	value  atomic.Int64
}

func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n; negative values are ignored.
func (c *Counter) Add(n int64) {
	if n > 0 {
		c.value.Add(n)
	}
}

func (c *Counter) Value() int64 { return c.value.Load() }

// -----------------------------------------------------------------------
// CounterVec: one counter per label-value combination
// -----------------------------------------------------------------------

// CounterVec is a family of counters sharing a name and label keys.
type CounterVec struct {
	name   string
	help   string
	keys   []string
	mu     sync.RWMutex
	series map[string]*Counter
}

// With returns the counter for the given label values, creating it on first
// use. Values are matched to keys by position; missing values are empty.
func (v *CounterVec) With(values ...string) *Counter {
	id := seriesID(values)
	v.mu.RLock()
	c, ok := v.series[id]
	v.mu.RUnlock()
	if ok {
		return c
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.series[id]; ok {
		return c
	}
	labels := make(map[string]string, len(v.keys))
	for i, k := range v.keys {
		if i < len(values) {
			labels[k] = values[i]
		} else {
			labels[k] = ""
		}
	}
	c = &Counter{name: v.name, help: v.help, labels: labels}
	v.series[id] = c
	return c
}

// Total sums every series.
func (v *CounterVec) Total() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var n int64
	for _, c := range v.series {
		n += c.Value()
	}
	return n
}

func (v *CounterVec) snapshot() []*Counter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*Counter, 0, len(v.series))
	for _, id := range sortedKeys(v.series) {
		out = append(out, v.series[id])
	}
	return out
}

func seriesID(values []string) string {
	id := ""
	for _, v := range values {
		id += strconv.Quote(v)
	}
	return id
}

// -----------------------------------------------------------------------
// Gauge
// -----------------------------------------------------------------------

// Gauge can go up and down. The value is stored as float64 bits.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// Add adds delta to the gauge (may be negative).
func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if g.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

// -----------------------------------------------------------------------
// Histogram
// -----------------------------------------------------------------------

// Histogram tracks value distributions in cumulative upper-bound buckets.
type Histogram struct {
	name    string
	help    string
	mu      sync.Mutex
	buckets []float64 // sorted upper bounds
	counts  []int64   // cumulative: values <= buckets[i]
	sum     float64
	count   int64
}

// Observe records a value into the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	for i, b := range h.buckets {
		if v <= b {
			h.counts[i]++
		}
	}
}

// ObserveDuration records d in milliseconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(float64(d) / float64(time.Millisecond))
}

func (h *Histogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Quantile returns an approximate q-quantile (0..1), interpolating linearly
// inside the bucket the rank falls in.
func (h *Histogram) Quantile(q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || q < 0 || q > 1 {
		return 0
	}
	rank := q * float64(h.count)
	for i, upper := range h.buckets {
		cum := float64(h.counts[i])
		if cum < rank {
			continue
		}
		var lower, prev float64
		if i > 0 {
			lower, prev = h.buckets[i-1], float64(h.counts[i-1])
		}
		if cum == prev {
			return upper
		}
		return lower + (rank-prev)/(cum-prev)*(upper-lower)
	}
	if n := len(h.buckets); n > 0 {
		return h.buckets[n-1]
	}
	return 0
}

// snapshot returns copies of the buckets and cumulative counts plus sum and count.
func (h *Histogram) snapshot() ([]float64, []int64, float64, int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := append([]float64(nil), h.buckets...)
	c := append([]int64(nil), h.counts...)
	return b, c, h.sum, h.count
}

// -----------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------

// Registry owns every metric. It is safe for concurrent use; registering an
// existing name returns the existing metric.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	vecs       map[string]*CounterVec
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		vecs:       make(map[string]*CounterVec),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) NewCounter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

func (r *Registry) NewCounterVec(name, help string, keys ...string) *CounterVec {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vecs[name]; ok {
		return v
	}
	v := &CounterVec{
		name:   name,
		help:   help,
		keys:   append([]string(nil), keys...),
		series: make(map[string]*Counter),
	}
	r.vecs[name] = v
	return v
}

func (r *Registry) NewGauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

func (r *Registry) NewHistogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	h := &Histogram{
		name:    name,
		help:    help,
		buckets: sorted,
		counts:  make([]int64, len(sorted)),
	}
	r.histograms[name] = h
	return h
}

// Snapshot returns every series, sorted by metric name.
func (r *Registry) Snapshot() []MetricEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []MetricEntry
	for _, name := range sortedKeys(r.counters) {
		out = append(out, MetricEntry{Name: name, Type: MetricCounter, Value: float64(r.counters[name].Value())})
	}
	for _, name := range sortedKeys(r.vecs) {
		for _, c := range r.vecs[name].snapshot() {
			out = append(out, MetricEntry{Name: name, Type: MetricCounter, Value: float64(c.Value()), Labels: c.labels})
		}
	}
	for _, name := range sortedKeys(r.gauges) {
		out = append(out, MetricEntry{Name: name, Type: MetricGauge, Value: r.gauges[name].Value()})
	}
	for _, name := range sortedKeys(r.histograms) {
		out = append(out, MetricEntry{Name: name, Type: MetricHistogram, Value: float64(r.histograms[name].Count())})
	}
	return out
}

// DefaultLatencyBuckets for latency histograms (in milliseconds).
var DefaultLatencyBuckets = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
