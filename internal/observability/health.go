package observability

import (
	"context"
	"sync"
	"time"
)

// ComponentStatus represents the health status of a component.
type ComponentStatus string

const (
	StatusHealthy   ComponentStatus = "healthy"
	StatusDegraded  ComponentStatus = "degraded"
	StatusUnhealthy ComponentStatus = "unhealthy"
)

// HealthCheck reports the health of one component.
type HealthCheck func(ctx context.Context) ComponentHealth

// ComponentHealth is the health report for a single component.
type ComponentHealth struct {
	Name      string          `json:"name"`
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs int64           `json:"latency_ms"`
	Details   map[string]any  `json:"details,omitempty"`
}

// SystemHealth aggregates every component; Status is the worst one seen.
type SystemHealth struct {
	Status     ComponentStatus            `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  time.Time                  `json:"ts"`
	UptimeSec  int64                      `json:"uptime_sec"`
}

// HealthChecker runs registered checks on demand.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheck
	startTime time.Time
	timeout   time.Duration
}

// NewHealthChecker creates a checker whose checks each get timeout.
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		checks:    make(map[string]HealthCheck),
		startTime: time.Now(),
		timeout:   timeout,
	}
}

// Register adds a named health check.
func (h *HealthChecker) Register(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Check runs every check concurrently and returns the aggregate.
func (h *HealthChecker) Check(ctx context.Context) SystemHealth {
	h.mu.RLock()
	names := sortedKeys(h.checks)
	checks := make([]HealthCheck, len(names))
	for i, n := range names {
		checks[i] = h.checks[n]
	}
	h.mu.RUnlock()

	results := make([]ComponentHealth, len(checks))
	var wg sync.WaitGroup
	for i, fn := range checks {
		wg.Add(1)
		go func(i int, fn HealthCheck) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			start := time.Now()
			res := fn(cctx)
			res.Name = names[i]
			res.LatencyMs = time.Since(start).Milliseconds()
			results[i] = res
		}(i, fn)
	}
	wg.Wait()

	out := SystemHealth{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentHealth, len(results)),
		Timestamp:  time.Now(),
		UptimeSec:  int64(time.Since(h.startTime).Seconds()),
	}
	for _, r := range results {
		out.Components[r.Name] = r
		if statusSeverity(r.Status) > statusSeverity(out.Status) {
			out.Status = r.Status
		}
	}
	return out
}

// ErrorCheck adapts a ping-style func. An error is unhealthy; a success
// slower than slow is degraded.
func ErrorCheck(ping func(ctx context.Context) error, slow time.Duration) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		start := time.Now()
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: StatusUnhealthy, Message: err.Error()}
		}
		if slow > 0 && time.Since(start) > slow {
			return ComponentHealth{Status: StatusDegraded, Message: "slow response"}
		}
		return ComponentHealth{Status: StatusHealthy}
	}
}

// StaticCheck reports a fixed healthy component with details, e.g. table sizes.
func StaticCheck(details map[string]any) HealthCheck {
	return func(context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusHealthy, Details: details}
	}
}

func statusSeverity(s ComponentStatus) int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	}
	return -1
}

// Names returns the registered check names, sorted.
func (h *HealthChecker) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedKeys(h.checks)
}
