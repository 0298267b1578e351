package graph

import (
	"github.com/shopspring/decimal"

	"github.com/nexus-trading/walletlink/internal/solana"
)

// SpamPolicy holds the economic thresholds of the spam filter.
type SpamPolicy struct {
	SOLPriceUSD    float64 // reference price used to value SOL volume
	MinValueUSD    float64 // keep anything at or above this value
	MinMaterialUSD float64 // floor for non-spam entries below MinValueUSD
}

// DefaultSpamPolicy returns the production thresholds.
func DefaultSpamPolicy() SpamPolicy {
	return SpamPolicy{
		SOLPriceUSD:    200,
		MinValueUSD:    100,
		MinMaterialUSD: 10,
	}
}

var (
	dustUSD           = decimal.NewFromInt(1)   // total value below this is dust
	receiveOnlyMinUSD = decimal.NewFromInt(100) // receive-only entries below this are airdrop spam
)

func (p SpamPolicy) value(native, stable decimal.Decimal) decimal.Decimal {
	return native.Mul(decimal.NewFromFloat(p.SOLPriceUSD)).Add(stable)
}

// TotalValueUSD values an interaction: SOL at the reference price plus stablecoins.
func (p SpamPolicy) TotalValueUSD(i *Interaction) decimal.Decimal {
	return p.value(i.TotalNative(), i.TotalStable())
}

// IsSpam applies the dust heuristic.
func (p SpamPolicy) IsSpam(i *Interaction) bool {
	if p.TotalValueUSD(i).LessThan(dustUSD) {
		return true
	}
	if i.SentCount == 0 && !i.IsFeePayer {
		if p.value(i.ReceivedNative, i.ReceivedStable).LessThan(receiveOnlyMinUSD) {
			return true
		}
	}
	if i.ReceivedCount == 0 {
		if p.value(i.SentNative, i.SentStable).LessThan(dustUSD) {
			return true
		}
	}
	return false
}

// Retain evaluates the retention rules in order; the first match wins.
func (p SpamPolicy) Retain(c *Connection, funder solana.Pubkey) bool {
	switch {
	case funder != "" && c.Address == funder:
		return true
	case c.IsFeePayer:
		return true
	case c.IsBidirectional:
		return true
	}

	total := p.TotalValueUSD(&c.Interaction)
	if total.GreaterThanOrEqual(decimal.NewFromFloat(p.MinValueUSD)) {
		return true
	}
	return !p.IsSpam(&c.Interaction) && total.GreaterThanOrEqual(decimal.NewFromFloat(p.MinMaterialUSD))
}

// FilterSpam returns the connections that survive the retention policy.
// The input map is not modified.
func FilterSpam(conns map[solana.Pubkey]*Connection, funder solana.Pubkey, p SpamPolicy) map[solana.Pubkey]*Connection {
	out := make(map[solana.Pubkey]*Connection, len(conns))
	for addr, c := range conns {
		if p.Retain(c, funder) {
			out[addr] = c
		}
	}
	return out
}
