package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nexus-trading/walletlink/internal/audit"
	"github.com/nexus-trading/walletlink/internal/classify"
	"github.com/nexus-trading/walletlink/internal/graph"
	"github.com/nexus-trading/walletlink/internal/observability"
	"github.com/nexus-trading/walletlink/internal/solana"
)

// Config holds the HTTP front end settings.
type Config struct {
	ListenAddr     string
	AnalyzeTimeout time.Duration
}

// StatsFunc contributes one section to the /stats document.
type StatsFunc func() any

// Server exposes the analyzer over HTTP and WebSocket.
//
//	GET /health              component health
//	GET /analyze?address=... one analysis, JSON result
//	GET /metrics             Prometheus text format
//	GET /stats               analyzer, provider and metric counters
//	GET /ws                  streamed analysis (state updates, then result)
//	GET /history             recent analyses, optionally ?address=
type Server struct {
	cfg      Config
	analyzer *graph.Analyzer
	metrics  *observability.WalletLinkMetrics
	health   *observability.HealthChecker
	exporter *observability.PrometheusExporter
	upgrader websocket.Upgrader
	trail    *audit.Trail

	mu    sync.RWMutex
	stats map[string]StatsFunc
}

// NewServer wires the front end. provider backs the health check and may be
// the same instance the analyzer uses.
func NewServer(cfg Config, analyzer *graph.Analyzer, provider solana.TransactionProvider, metrics *observability.WalletLinkMetrics) *Server {
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = 2 * time.Minute
	}
	if metrics == nil {
		metrics = observability.NewWalletLinkMetrics()
	}

	health := observability.NewHealthChecker(5 * time.Second)
	health.Register("provider", observability.ErrorCheck(provider.Health, 2*time.Second))
	health.Register("classifier", observability.StaticCheck(map[string]any{
		"entities": classify.Count(),
	}))

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		metrics:  metrics,
		health:   health,
		exporter: observability.NewPrometheusExporter(metrics.Registry),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		stats: make(map[string]StatsFunc),
	}
	s.AddStats("analyzer", func() any { return analyzer.Stats() })
	s.AddStats("metrics", func() any { return metrics.Registry.Snapshot() })
	return s
}

// SetTrail records every analysis served by this server. Without a trail,
// /history returns 404.
func (s *Server) SetTrail(t *audit.Trail) {
	s.trail = t
}

// AddStats registers a named /stats section.
func (s *Server) AddStats(name string, fn StatsFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[name] = fn
}

// Health exposes the checker so callers can register extra components.
func (s *Server) Health() *observability.HealthChecker {
	return s.health
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.Handle("/metrics", s.exporter)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/history", s.handleHistory)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.cfg.ListenAddr).Msg("api: HTTP server started")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.health.Check(r.Context())
	status := http.StatusOK
	if h.Status == observability.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	target, err := solana.ParsePubkey(r.URL.Query().Get("address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AnalyzeTimeout)
	defer cancel()
	done := s.metrics.Track()
	defer done()

	start := time.Now()
	result := s.analyzer.Analyze(ctx, target)
	s.record(audit.SourceHTTP, target, result, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) record(source string, target solana.Pubkey, result *graph.AnalysisResult, elapsed time.Duration) {
	if s.trail != nil {
		s.trail.RecordAnalysis(source, target, result, elapsed)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	if raw := q.Get("address"); raw != "" {
		target, err := solana.ParsePubkey(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		entries := s.trail.Query(target)
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}
	writeJSON(w, http.StatusOK, s.trail.Recent(limit))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	combined := make(map[string]any, len(s.stats))
	for name, fn := range s.stats {
		combined[name] = fn()
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, combined)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("api: encode response")
	}
}
