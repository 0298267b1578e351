package graph

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nexus-trading/walletlink/internal/classify"
	"github.com/nexus-trading/walletlink/internal/solana"
)

// ---------------------------------------------------------------------------
// Hop orchestrator: target fetch, hop-1 scoring, hop-2 fan-out and merge
// ---------------------------------------------------------------------------

// ErrEmptyHistory is reported when the target has no transactions.
var ErrEmptyHistory = errors.New("no transactions found for this address")

// Config configures the Analyzer.
type Config struct {
	Hop1Limit          int           `yaml:"hop1_limit"`           // target history size
	Hop2Limit          int           `yaml:"hop2_limit"`           // per-intermediate history size
	FunderHistoryLimit int           `yaml:"funder_history_limit"` // funder history for siblings
	MaxHop1Wallets     int           `yaml:"max_hop1_wallets"`     // direct connections reported
	MaxHop2Wallets     int           `yaml:"max_hop2_wallets"`     // K: intermediates expanded
	MaxHop2Results     int           `yaml:"max_hop2_results"`
	MaxCluster         int           `yaml:"max_cluster"`
	BranchTimeout      time.Duration `yaml:"branch_timeout"`
	SOLPriceUSD        float64       `yaml:"sol_price_usd"`
	MinValueUSD        float64       `yaml:"min_value_usd"`
	MinMaterialUSD     float64       `yaml:"min_material_usd"`
	MinSiblingSOL      float64       `yaml:"min_sibling_sol"`
	LargeTransferSOL   float64       `yaml:"large_transfer_sol"`
	StableMints        []string      `yaml:"stable_mints"`

	Weights Weights `yaml:"-"` // loaded from the scoring section
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Hop1Limit:          100,
		Hop2Limit:          50,
		FunderHistoryLimit: 50,
		MaxHop1Wallets:     30,
		MaxHop2Wallets:     15,
		MaxHop2Results:     20,
		MaxCluster:         10,
		BranchTimeout:      30 * time.Second,
		SOLPriceUSD:        200,
		MinValueUSD:        100,
		MinMaterialUSD:     10,
		MinSiblingSOL:      0.1,
		LargeTransferSOL:   10,
		StableMints:        solana.DefaultStableMints(),
		Weights:            DefaultWeights(),
	}
}

// MetricsSink receives analysis outcomes.
type MetricsSink interface {
	ObserveAnalysis(elapsed time.Duration, failed bool)
	ObserveBranchFailure()
}

// ProgressFunc is called on every orchestrator state transition.
type ProgressFunc func(state State)

// Analyzer runs wallet attribution analyses against a TransactionProvider.
// It is safe for concurrent use; each Analyze call owns its own state.
type Analyzer struct {
	provider solana.TransactionProvider
	cfg      Config
	scorer   *Scorer
	spam     SpamPolicy
	stable   StableMints
	minSib   decimal.Decimal
	exclude  ExcludeFunc
	metrics  MetricsSink

	analyses       atomic.Int64
	failures       atomic.Int64
	branches       atomic.Int64
	branchFailures atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewAnalyzer creates an Analyzer. Zero-valued limits fall back to defaults.
func NewAnalyzer(provider solana.TransactionProvider, cfg Config) *Analyzer {
	cfg = withDefaults(cfg)
	return &Analyzer{
		provider: provider,
		cfg:      cfg,
		scorer:   NewScorer(cfg.Weights).WithLargeTransfer(decimal.NewFromFloat(cfg.LargeTransferSOL)),
		spam: SpamPolicy{
			SOLPriceUSD:    cfg.SOLPriceUSD,
			MinValueUSD:    cfg.MinValueUSD,
			MinMaterialUSD: cfg.MinMaterialUSD,
		},
		stable:  NewStableMints(cfg.StableMints),
		minSib:  decimal.NewFromFloat(cfg.MinSiblingSOL),
		exclude: classifierGate,
	}
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.Hop1Limit <= 0 {
		cfg.Hop1Limit = d.Hop1Limit
	}
	if cfg.Hop2Limit <= 0 {
		cfg.Hop2Limit = d.Hop2Limit
	}
	if cfg.FunderHistoryLimit <= 0 {
		cfg.FunderHistoryLimit = d.FunderHistoryLimit
	}
	if cfg.MaxHop1Wallets <= 0 {
		cfg.MaxHop1Wallets = d.MaxHop1Wallets
	}
	if cfg.MaxHop2Wallets <= 0 {
		cfg.MaxHop2Wallets = d.MaxHop2Wallets
	}
	if cfg.MaxHop2Results <= 0 {
		cfg.MaxHop2Results = d.MaxHop2Results
	}
	if cfg.MaxCluster <= 0 {
		cfg.MaxCluster = d.MaxCluster
	}
	if cfg.BranchTimeout <= 0 {
		cfg.BranchTimeout = d.BranchTimeout
	}
	if cfg.SOLPriceUSD <= 0 {
		cfg.SOLPriceUSD = d.SOLPriceUSD
	}
	if cfg.MinValueUSD <= 0 {
		cfg.MinValueUSD = d.MinValueUSD
	}
	if cfg.MinMaterialUSD <= 0 {
		cfg.MinMaterialUSD = d.MinMaterialUSD
	}
	if cfg.MinSiblingSOL <= 0 {
		cfg.MinSiblingSOL = d.MinSiblingSOL
	}
	if cfg.LargeTransferSOL <= 0 {
		cfg.LargeTransferSOL = d.LargeTransferSOL
	}
	if cfg.StableMints == nil {
		cfg.StableMints = d.StableMints
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = d.Weights
	}
	return cfg
}

// classifierGate excludes known entities, program addresses and any
// address whose label matches an excluded pattern.
func classifierGate(addr solana.Pubkey) bool {
	return classify.Excluded(addr.String(), classify.Label(addr.String()))
}

// SetMetrics attaches a metrics sink. Must be called before the first Analyze.
func (a *Analyzer) SetMetrics(m MetricsSink) {
	a.metrics = m
}

// SetExcludeFunc replaces the classification gate.
func (a *Analyzer) SetExcludeFunc(f ExcludeFunc) {
	if f != nil {
		a.exclude = f
	}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Scorer returns the scorer used for hop-1 and hop-2 connections.
func (a *Analyzer) Scorer() *Scorer {
	return a.scorer
}

// Analyze runs a full two-hop analysis of target.
func (a *Analyzer) Analyze(ctx context.Context, target solana.Pubkey) *AnalysisResult {
	return a.AnalyzeWithProgress(ctx, target, nil)
}

// AnalyzeWithProgress is Analyze with a state-transition callback.
// The callback runs on the calling goroutine.
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, target solana.Pubkey, progress ProgressFunc) *AnalysisResult {
	start := time.Now()
	run := &analysisRun{
		a:        a,
		id:       uuid.New().String(),
		target:   target,
		progress: progress,
	}
	result := run.execute(ctx)
	elapsed := time.Since(start)

	a.analyses.Add(1)
	a.totalLatencyNs.Add(elapsed.Nanoseconds())
	if result.Failed() {
		a.failures.Add(1)
	}
	if a.metrics != nil {
		a.metrics.ObserveAnalysis(elapsed, result.Failed())
	}

	evt := log.Info()
	if result.Failed() {
		evt = log.Warn().Str("error", result.Error)
	}
	evt.Str("run_id", run.id).
		Str("address", target.String()).
		Int("tx_count", result.TransactionCount).
		Int("hop1", len(result.DirectConnections)).
		Int("hop2", len(result.Hop2Connections)).
		Dur("elapsed", elapsed).
		Msg("graph: analysis complete")

	return result
}

// AnalyzerStats is a snapshot of the analyzer counters.
type AnalyzerStats struct {
	Analyses       int64 `json:"analyses"`
	Failures       int64 `json:"failures"`
	Branches       int64 `json:"hop2_branches"`
	BranchFailures int64 `json:"hop2_branch_failures"`
	AvgLatencyMs   int64 `json:"avg_latency_ms"`
}

// Stats returns the analyzer counters.
func (a *Analyzer) Stats() AnalyzerStats {
	n := a.analyses.Load()
	var avg int64
	if n > 0 {
		avg = a.totalLatencyNs.Load() / n / int64(time.Millisecond)
	}
	return AnalyzerStats{
		Analyses:       n,
		Failures:       a.failures.Load(),
		Branches:       a.branches.Load(),
		BranchFailures: a.branchFailures.Load(),
		AvgLatencyMs:   avg,
	}
}

// ---------------------------------------------------------------------------
// Per-call run state
// ---------------------------------------------------------------------------

type analysisRun struct {
	a        *Analyzer
	id       string
	target   solana.Pubkey
	progress ProgressFunc
	state    State

	funder      solana.Pubkey
	siblings    addrSet
	targetHours HourSet
	targetCPs   addrSet
}

func (r *analysisRun) enter(s State) {
	r.state = s
	log.Debug().Str("run_id", r.id).Str("address", r.target.String()).
		Str("state", s.String()).Msg("graph: state")
	if r.progress != nil {
		r.progress(s)
	}
}

func (r *analysisRun) fail(msg string) *AnalysisResult {
	r.enter(StateErrored)
	return &AnalysisResult{Error: msg}
}

func (r *analysisRun) execute(ctx context.Context) *AnalysisResult {
	a := r.a

	r.enter(StateFetchingTarget)
	txs, err := a.provider.FetchHistory(ctx, r.target, a.cfg.Hop1Limit)
	if err != nil {
		return r.fail(fmt.Sprintf("failed to fetch transactions: %v", err))
	}
	if len(txs) == 0 {
		return r.fail(ErrEmptyHistory.Error())
	}

	result := &AnalysisResult{
		RunID:            r.id,
		TargetAddress:    r.target,
		TransactionCount: len(txs),
		CEXDeposits:      FindCEXDeposits(txs, r.target, cexName),
	}

	r.enter(StateExtractingHop1)
	recs := ExtractInteractions(txs, r.target, a.stable)
	r.targetCPs = keySet(recs)
	r.targetHours = activeHours(txs)

	r.enter(StateResolvingFunder)
	if funder, ok := FindFunder(txs, r.target, a.exclude); ok {
		r.funder = funder
		result.Funder = funder
		result.FunderOfFunder, r.siblings = r.resolveFunderContext(ctx)
		result.SameFunderCluster = capAddrs(sortedAddrs(r.siblings), a.cfg.MaxCluster)
	}

	r.enter(StateFilteringHop1)
	hop1 := make(map[solana.Pubkey]*Connection, len(recs))
	for addr, rec := range recs {
		if a.exclude(addr) {
			continue
		}
		hop1[addr] = newConnection(addr, rec, 1)
	}
	hop1 = FilterSpam(hop1, r.funder, a.spam)

	r.enter(StateScoringHop1)
	sc := r.scoreContext()
	for _, c := range hop1 {
		a.scorer.Score(c, sc)
	}
	ranked := rank(hop1)

	r.enter(StateExpandingHop2)
	intermediates := ranked[:min(a.cfg.MaxHop2Wallets, len(ranked))]
	branches := r.expand(ctx, intermediates)

	r.enter(StateMergingHop2)
	for i, br := range branches {
		if br == nil {
			continue
		}
		c := intermediates[i]
		c.CommonCounterparties = countCommon(r.targetCPs, br.counterparties)
		a.scorer.Score(c, sc)
	}
	ranked = rank(hop1)
	hop2 := mergeHop2(branches, keySet(hop1), r.target)

	for _, c := range ranked {
		if c.IsBidirectional && len(result.BidirectionalCluster) < a.cfg.MaxCluster {
			result.BidirectionalCluster = append(result.BidirectionalCluster, c.Address)
		}
	}
	result.DirectConnections = ranked[:min(a.cfg.MaxHop1Wallets, len(ranked))]
	result.Hop2Connections = hop2[:min(a.cfg.MaxHop2Results, len(hop2))]

	r.enter(StateDone)
	return result
}

func (r *analysisRun) scoreContext() ScoreContext {
	return ScoreContext{
		Funder:      r.funder,
		Siblings:    r.siblings,
		TargetHours: r.targetHours,
	}
}

// resolveFunderContext fetches the funder's own history to find its funder
// and the other wallets it seeded. Failures only cost those two fields.
func (r *analysisRun) resolveFunderContext(ctx context.Context) (solana.Pubkey, addrSet) {
	a := r.a
	siblings := make(addrSet)
	funderTxs, err := a.provider.FetchHistory(ctx, r.funder, a.cfg.FunderHistoryLimit)
	if err != nil {
		log.Warn().Err(err).Str("run_id", r.id).Str("funder", r.funder.String()).
			Msg("graph: funder history unavailable")
		return "", siblings
	}

	fof, _ := FindFunder(funderTxs, r.funder, a.exclude)
	for _, addr := range FundingSiblings(funderTxs, r.funder, r.target, a.minSib, a.exclude) {
		siblings[addr] = struct{}{}
	}
	return fof, siblings
}

func cexName(addr solana.Pubkey) (string, bool) {
	return classify.CEXName(addr.String())
}

func capAddrs(addrs []solana.Pubkey, n int) []solana.Pubkey {
	if len(addrs) > n {
		return addrs[:n]
	}
	return addrs
}

// ---------------------------------------------------------------------------
// Hop-2 expansion
// ---------------------------------------------------------------------------

// branchResult is one intermediate's contribution. A nil entry in the
// branch slice is a failed branch.
type branchResult struct {
	via            solana.Pubkey
	counterparties addrSet
	conns          map[solana.Pubkey]*Connection
}

// expand fans out over intermediates. Every branch runs under its own
// timeout and reports failure through its slot, never through the group.
func (r *analysisRun) expand(ctx context.Context, intermediates []*Connection) []*branchResult {
	results := make([]*branchResult, len(intermediates))
	var g errgroup.Group
	for i, c := range intermediates {
		i, via := i, c.Address
		g.Go(func() error {
			r.a.branches.Add(1)
			br, err := r.runBranch(ctx, via)
			if err != nil {
				r.a.branchFailures.Add(1)
				if r.a.metrics != nil {
					r.a.metrics.ObserveBranchFailure()
				}
				log.Warn().Err(err).Str("run_id", r.id).Str("via", via.String()).
					Msg("graph: hop-2 branch failed")
				return nil
			}
			results[i] = br
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *analysisRun) runBranch(ctx context.Context, via solana.Pubkey) (br *branchResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			br, err = nil, fmt.Errorf("branch panic: %v", p)
		}
	}()

	a := r.a
	bctx, cancel := context.WithTimeout(ctx, a.cfg.BranchTimeout)
	defer cancel()

	txs, err := a.provider.FetchHistory(bctx, via, a.cfg.Hop2Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", via.Short(), err)
	}

	recs := ExtractInteractions(txs, via, a.stable)
	cps := keySet(recs)
	common := countCommon(r.targetCPs, cps)

	conns := make(map[solana.Pubkey]*Connection, len(recs))
	for addr, rec := range recs {
		if addr == r.target || a.exclude(addr) {
			continue
		}
		conns[addr] = newConnection(addr, rec, 2)
	}

	branchFunder, _ := FindFunder(txs, via, a.exclude)
	conns = FilterSpam(conns, branchFunder, a.spam)

	sameFunder := r.funder != "" && branchFunder == r.funder
	for _, c := range conns {
		c.ConnectedVia = []solana.Pubkey{via}
		c.CommonCounterparties = common
		a.scorer.ScoreHop2(c, sameFunder)
	}

	return &branchResult{via: via, counterparties: cps, conns: conns}, nil
}
