package graph

import (
	"github.com/shopspring/decimal"

	"github.com/nexus-trading/walletlink/internal/solana"
)

// ---------------------------------------------------------------------------
// Connection scorer: additive multi-heuristic model
// ---------------------------------------------------------------------------

// Weights are the per-heuristic score contributions.
type Weights struct {
	Funder          float64 `yaml:"funder"`
	SameFunder      float64 `yaml:"same_funder"`
	FeePayer        float64 `yaml:"fee_payer"`
	Bidirectional   float64 `yaml:"bidirectional"`
	HighFrequency   float64 `yaml:"high_frequency"`
	MediumFrequency float64 `yaml:"medium_frequency"`
	RoundAmount     float64 `yaml:"round_amount"`
	LargeTransfer   float64 `yaml:"large_transfer"`
	Timing          float64 `yaml:"timing_correlation"`
	CommonCPHigh    float64 `yaml:"common_counterparty_high"`
	CommonCPMed     float64 `yaml:"common_counterparty_med"`
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		Funder:          100,
		SameFunder:      90,
		FeePayer:        60,
		Bidirectional:   50,
		HighFrequency:   25,
		MediumFrequency: 15,
		RoundAmount:     20,
		LargeTransfer:   20,
		Timing:          30,
		CommonCPHigh:    40,
		CommonCPMed:     25,
	}
}

const (
	highFrequencyCount   = 10
	mediumFrequencyCount = 5
	commonCPHighCount    = 5
	commonCPMedCount     = 3
	timingThreshold      = 0.5
	hop2SameFunderFactor = 0.5
)

// DefaultLargeTransferSOL is the combined native volume that fires LARGE_XFER.
var DefaultLargeTransferSOL = decimal.NewFromInt(10)

var (
	roundTolerance = decimal.New(1, -3)
	roundValues    = []decimal.Decimal{
		decimal.New(1, -1), decimal.New(5, -1),
		decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(5),
		decimal.NewFromInt(10), decimal.NewFromInt(25), decimal.NewFromInt(50),
		decimal.NewFromInt(100), decimal.NewFromInt(250), decimal.NewFromInt(500),
		decimal.NewFromInt(1000),
	}
)

// ScoreContext is the target-side state the heuristics compare against.
type ScoreContext struct {
	Funder      solana.Pubkey
	Siblings    map[solana.Pubkey]struct{}
	TargetHours HourSet
}

// evaluator is one heuristic: it reports its tag and weight when it fires.
type evaluator func(s *Scorer, c *Connection, sc *ScoreContext) (Signal, float64, bool)

// evaluators run in declaration order; tags keep that order.
var evaluators = []evaluator{
	evalFunder,
	evalSameFunder,
	evalFeePayer,
	evalBidirectional,
	evalFrequency,
	evalRoundAmount,
	evalLargeTransfer,
	evalTiming,
	evalCommonCounterparties,
}

func evalFunder(s *Scorer, c *Connection, sc *ScoreContext) (Signal, float64, bool) {
	return SignalFunder, s.weights.Funder, sc.Funder != "" && c.Address == sc.Funder
}

func evalSameFunder(s *Scorer, c *Connection, sc *ScoreContext) (Signal, float64, bool) {
	_, ok := sc.Siblings[c.Address]
	return SignalSameFunder, s.weights.SameFunder, ok
}

func evalFeePayer(s *Scorer, c *Connection, _ *ScoreContext) (Signal, float64, bool) {
	return SignalFeePayer, s.weights.FeePayer, c.IsFeePayer
}

func evalBidirectional(s *Scorer, c *Connection, _ *ScoreContext) (Signal, float64, bool) {
	return SignalBidirectional, s.weights.Bidirectional, c.IsBidirectional
}

func evalFrequency(s *Scorer, c *Connection, _ *ScoreContext) (Signal, float64, bool) {
	switch n := c.TotalCount(); {
	case n >= highFrequencyCount:
		return SignalHighFreq, s.weights.HighFrequency, true
	case n >= mediumFrequencyCount:
		return SignalMedFreq, s.weights.MediumFrequency, true
	}
	return "", 0, false
}

func evalRoundAmount(s *Scorer, c *Connection, _ *ScoreContext) (Signal, float64, bool) {
	return SignalRoundAmount, s.weights.RoundAmount, hasRoundAmount(&c.Interaction)
}

func evalLargeTransfer(s *Scorer, c *Connection, _ *ScoreContext) (Signal, float64, bool) {
	return SignalLargeTransfer, s.weights.LargeTransfer, c.TotalNative().GreaterThanOrEqual(s.largeTransfer)
}

func evalTiming(s *Scorer, c *Connection, sc *ScoreContext) (Signal, float64, bool) {
	return SignalTiming, s.weights.Timing, c.ActiveHours.Jaccard(sc.TargetHours) > timingThreshold
}

func evalCommonCounterparties(s *Scorer, c *Connection, _ *ScoreContext) (Signal, float64, bool) {
	switch n := c.CommonCounterparties; {
	case n >= commonCPHighCount:
		return SignalCommonCPHigh, s.weights.CommonCPHigh, true
	case n >= commonCPMedCount:
		return SignalCommonCP, s.weights.CommonCPMed, true
	}
	return "", 0, false
}

// hasRoundAmount checks the sent and received SOL totals against the
// canonical round values, directly or as a multiple.
func hasRoundAmount(i *Interaction) bool {
	for _, amt := range []decimal.Decimal{i.SentNative, i.ReceivedNative} {
		if !amt.IsPositive() {
			continue
		}
		for _, r := range roundValues {
			if amt.Sub(r).Abs().LessThan(roundTolerance) {
				return true
			}
			if amt.Mod(r).Abs().LessThan(roundTolerance) {
				return true
			}
		}
	}
	return false
}

// Scorer applies the heuristic set with a fixed weight table.
type Scorer struct {
	weights       Weights
	largeTransfer decimal.Decimal
}

// NewScorer creates a scorer with the default large-transfer threshold.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights, largeTransfer: DefaultLargeTransferSOL}
}

// WithLargeTransfer overrides the LARGE_XFER threshold in native units.
func (s *Scorer) WithLargeTransfer(sol decimal.Decimal) *Scorer {
	if sol.IsPositive() {
		s.largeTransfer = sol
	}
	return s
}

// Weights returns the active weight table.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score recomputes c's score and tags from scratch.
func (s *Scorer) Score(c *Connection, sc ScoreContext) float64 {
	c.resetScore()
	c.IsFunder = sc.Funder != "" && c.Address == sc.Funder
	for _, eval := range evaluators {
		if sig, weight, ok := eval(s, c, &sc); ok {
			c.addSignal(sig, weight)
		}
	}
	return c.Score
}

// ScoreHop2 applies the partial scoring used for second-hop connections:
// a damped same-funder bonus plus the common-counterparty tiers.
func (s *Scorer) ScoreHop2(c *Connection, sameFunder bool) float64 {
	c.resetScore()
	if sameFunder {
		c.addSignal(SignalSameFunderVia, s.weights.SameFunder*hop2SameFunderFactor)
	}
	if sig, weight, ok := evalCommonCounterparties(s, c, nil); ok {
		c.addSignal(sig, weight)
	}
	return c.Score
}

// WeightOf returns the weight a tag contributes under this scorer.
func (s *Scorer) WeightOf(sig Signal) float64 {
	w := s.weights
	switch sig {
	case SignalFunder:
		return w.Funder
	case SignalSameFunder:
		return w.SameFunder
	case SignalSameFunderVia:
		return w.SameFunder * hop2SameFunderFactor
	case SignalFeePayer:
		return w.FeePayer
	case SignalBidirectional:
		return w.Bidirectional
	case SignalHighFreq:
		return w.HighFrequency
	case SignalMedFreq:
		return w.MediumFrequency
	case SignalRoundAmount:
		return w.RoundAmount
	case SignalLargeTransfer:
		return w.LargeTransfer
	case SignalTiming:
		return w.Timing
	case SignalCommonCPHigh:
		return w.CommonCPHigh
	case SignalCommonCP:
		return w.CommonCPMed
	}
	return 0
}
