package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-trading/walletlink/internal/solana"
)

func hours(hs ...int) HourSet {
	var h HourSet
	for _, hr := range hs {
		h.Add(hr)
	}
	return h
}

func sumWeights(s *Scorer, sigs []Signal) float64 {
	total := 0.0
	for _, sig := range sigs {
		total += s.WeightOf(sig)
	}
	return total
}

func TestScorer_Individual(t *testing.T) {
	s := NewScorer(DefaultWeights())
	sc := ScoreContext{
		Funder:      "Funder",
		Siblings:    map[solana.Pubkey]struct{}{"Sibling": {}},
		TargetHours: hours(1, 2, 3),
	}

	tests := []struct {
		name   string
		conn   *Connection
		signal Signal
		score  float64
	}{
		{"funder", conn("Funder", func(i *Interaction) {}), SignalFunder, 100},
		{"sibling", conn("Sibling", func(i *Interaction) {}), SignalSameFunder, 90},
		{"fee payer", conn("Alpha", func(i *Interaction) { i.IsFeePayer = true }), SignalFeePayer, 60},
		{"bidirectional", conn("Alpha", func(i *Interaction) {
			i.SentCount, i.ReceivedCount = 1, 1
			i.SentNative, i.ReceivedNative = sol("0.37"), sol("0.41")
		}), SignalBidirectional, 50},
		{"high frequency", conn("Alpha", func(i *Interaction) { i.SentCount = 10 }), SignalHighFreq, 25},
		{"medium frequency", conn("Alpha", func(i *Interaction) { i.SentCount = 5 }), SignalMedFreq, 15},
		{"round amount", conn("Alpha", func(i *Interaction) { i.SentNative = sol("2") }), SignalRoundAmount, 20},
		{"timing", conn("Alpha", func(i *Interaction) { i.ActiveHours = hours(1, 2) }), SignalTiming, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := s.Score(tt.conn, sc)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, []Signal{tt.signal}, tt.conn.Signals)
		})
	}
}

func TestScorer_LargeTransfer(t *testing.T) {
	s := NewScorer(DefaultWeights())
	c := conn("Alpha", func(i *Interaction) {
		i.SentNative = sol("6.37")
		i.ReceivedNative = sol("3.63")
	})
	s.Score(c, ScoreContext{})
	assert.Equal(t, []Signal{SignalLargeTransfer}, c.Signals)

	s.WithLargeTransfer(sol("20"))
	s.Score(c, ScoreContext{})
	assert.Empty(t, c.Signals)
}

func TestScorer_CommonCounterpartyTiers(t *testing.T) {
	s := NewScorer(DefaultWeights())
	c := conn("Alpha", func(i *Interaction) {})

	c.CommonCounterparties = 2
	assert.Equal(t, 0.0, s.Score(c, ScoreContext{}))

	c.CommonCounterparties = 3
	assert.Equal(t, 25.0, s.Score(c, ScoreContext{}))
	assert.Equal(t, []Signal{SignalCommonCP}, c.Signals)

	c.CommonCounterparties = 7
	assert.Equal(t, 40.0, s.Score(c, ScoreContext{}))
	assert.Equal(t, []Signal{SignalCommonCPHigh}, c.Signals)
}

func TestScorer_FrequencyTiersExclusive(t *testing.T) {
	s := NewScorer(DefaultWeights())
	c := conn("Alpha", func(i *Interaction) { i.SentCount, i.ReceivedCount = 6, 6 })
	s.Score(c, ScoreContext{})
	assert.True(t, c.HasSignal(SignalHighFreq))
	assert.False(t, c.HasSignal(SignalMedFreq))
}

func TestHasRoundAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"1", true},
		{"0.1", true},
		{"0.5005", true},
		{"7", true},
		{"0.3", true},
		{"1250", true},
		{"0.37", false},
		{"1.2345", false},
		{"0", false},
	}
	for _, tt := range tests {
		rec := &Interaction{ReceivedNative: sol(tt.amount)}
		assert.Equal(t, tt.want, hasRoundAmount(rec), tt.amount)
	}
}

func TestHasRoundAmount_UsesTotals(t *testing.T) {
	target := solana.Pubkey("Target")
	recs := ExtractInteractions([]solana.TransactionRecord{
		mkTx("s1", at(0, 1), "Alpha", xfer("Alpha", target, "0.37")),
		mkTx("s2", at(0, 2), "Alpha", xfer("Alpha", target, "0.63")),
		mkTx("s3", at(0, 3), target, xfer(target, "Bravo", "0.37")),
	}, target, nil)

	assert.True(t, hasRoundAmount(recs["Alpha"]), "0.37 + 0.63 totals 1")
	assert.False(t, hasRoundAmount(recs["Bravo"]))
}

func TestScorer_Idempotent(t *testing.T) {
	s := NewScorer(DefaultWeights())
	sc := ScoreContext{Funder: "Alpha", TargetHours: hours(4)}
	c := conn("Alpha", func(i *Interaction) {
		i.SentCount, i.ReceivedCount = 6, 6
		i.SentNative = sol("5")
		i.ActiveHours = hours(4)
	})
	first := s.Score(c, sc)
	sigs := append([]Signal(nil), c.Signals...)
	assert.Equal(t, first, s.Score(c, sc))
	assert.Equal(t, sigs, c.Signals)
	assert.True(t, c.IsFunder)
}

func TestScorer_MonotonicAccumulation(t *testing.T) {
	s := NewScorer(DefaultWeights())
	sc := ScoreContext{Funder: "Alpha", TargetHours: hours(4)}
	c := conn("Alpha", func(i *Interaction) {})

	mutations := []func(c *Connection){
		func(c *Connection) { c.IsFeePayer = true },
		func(c *Connection) {
			c.SentCount, c.ReceivedCount = 1, 1
			c.IsBidirectional = true
		},
		func(c *Connection) { c.SentCount = 9 },
		func(c *Connection) { c.SentNative = sol("2") },
		func(c *Connection) { c.SentNative = sol("12") },
		func(c *Connection) { c.ActiveHours = hours(4) },
		func(c *Connection) { c.CommonCounterparties = 5 },
	}

	prev := s.Score(c, sc)
	assert.GreaterOrEqual(t, prev, 0.0)
	for i, m := range mutations {
		before := len(c.Signals)
		m(c)
		score := s.Score(c, sc)
		assert.Greater(t, len(c.Signals), before, "mutation %d adds a signal", i)
		assert.Greater(t, score, prev, "mutation %d", i)
		assert.Equal(t, sumWeights(s, c.Signals), score)
		prev = score
	}
}

func TestScorer_SignalOrder(t *testing.T) {
	s := NewScorer(DefaultWeights())
	c := conn("Alpha", func(i *Interaction) {
		i.SentCount, i.ReceivedCount = 5, 6
		i.SentNative = sol("10")
		i.IsFeePayer = true
		i.ActiveHours = hours(3)
	})
	c.CommonCounterparties = 3
	s.Score(c, ScoreContext{Funder: "Alpha", TargetHours: hours(3)})
	assert.Equal(t, []Signal{
		SignalFunder, SignalFeePayer, SignalBidirectional, SignalHighFreq,
		SignalRoundAmount, SignalLargeTransfer, SignalTiming, SignalCommonCP,
	}, c.Signals)
}

func TestScorer_Hop2(t *testing.T) {
	s := NewScorer(DefaultWeights())
	c := conn("Alpha", func(i *Interaction) {
		i.SentCount = 20
		i.IsFeePayer = true
	})
	assert.Equal(t, 45.0, s.ScoreHop2(c, true))
	assert.Equal(t, []Signal{SignalSameFunderVia}, c.Signals)

	c.CommonCounterparties = 5
	assert.Equal(t, 40.0, s.ScoreHop2(c, false))
	assert.Equal(t, []Signal{SignalCommonCPHigh}, c.Signals)
}

func TestScorer_NegativeWeightsIgnored(t *testing.T) {
	w := DefaultWeights()
	w.FeePayer = -10
	s := NewScorer(w)
	c := conn("Alpha", func(i *Interaction) { i.IsFeePayer = true })
	assert.Equal(t, 0.0, s.Score(c, ScoreContext{}))
}
