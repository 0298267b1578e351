package graph

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nexus-trading/walletlink/internal/solana"
)

// ExcludeFunc reports whether an address is a known non-personal entity.
type ExcludeFunc func(solana.Pubkey) bool

// FindFunder returns the sender of the earliest positive SOL transfer into
// target from a non-excluded address. Untimestamped transactions sort last.
func FindFunder(txs []solana.TransactionRecord, target solana.Pubkey, excluded ExcludeFunc) (solana.Pubkey, bool) {
	ordered := make([]*solana.TransactionRecord, len(txs))
	for i := range txs {
		ordered[i] = &txs[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return fundingOrder(ordered[i]) < fundingOrder(ordered[j])
	})

	for _, tx := range ordered {
		for _, t := range tx.NativeTransfers {
			if t.To != target || t.From == "" || t.From == target || !t.Amount.IsPositive() {
				continue
			}
			if excluded != nil && excluded(t.From) {
				continue
			}
			return t.From, true
		}
	}
	return "", false
}

func fundingOrder(tx *solana.TransactionRecord) int64 {
	if !tx.HasTimestamp() {
		return math.MaxInt64
	}
	return *tx.Timestamp
}

// FundingSiblings returns the addresses funder sent at least minSOL to,
// other than target and excluded addresses, sorted by address.
func FundingSiblings(funderTxs []solana.TransactionRecord, funder, target solana.Pubkey, minSOL decimal.Decimal, excluded ExcludeFunc) []solana.Pubkey {
	recs := ExtractInteractions(funderTxs, funder, nil)
	siblings := make([]solana.Pubkey, 0)
	for _, addr := range sortedAddrs(recs) {
		rec := recs[addr]
		if rec.SentCount == 0 || rec.SentNative.LessThan(minSOL) {
			continue
		}
		if addr == target || (excluded != nil && excluded(addr)) {
			continue
		}
		siblings = append(siblings, addr)
	}
	return siblings
}

// FindCEXDeposits groups the target's outbound SOL transfers to known
// exchange wallets by exchange. Reusing a deposit address across wallets is
// a strong common-owner hint for the reader of the report.
func FindCEXDeposits(txs []solana.TransactionRecord, target solana.Pubkey, cexName func(solana.Pubkey) (string, bool)) []CEXDeposit {
	byExchange := make(map[string]*CEXDeposit)
	for _, tx := range txs {
		for _, t := range tx.NativeTransfers {
			if t.From != target || t.To == "" {
				continue
			}
			name, ok := cexName(t.To)
			if !ok {
				continue
			}
			dep, ok := byExchange[name]
			if !ok {
				dep = &CEXDeposit{Exchange: name}
				byExchange[name] = dep
			}
			if !containsAddr(dep.Addresses, t.To) {
				dep.Addresses = append(dep.Addresses, t.To)
			}
			dep.Transfers++
			dep.TotalSOL = dep.TotalSOL.Add(t.Amount)
		}
	}

	out := make([]CEXDeposit, 0, len(byExchange))
	for _, dep := range byExchange {
		sort.Slice(dep.Addresses, func(i, j int) bool { return dep.Addresses[i] < dep.Addresses[j] })
		out = append(out, *dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exchange < out[j].Exchange })
	return out
}

func containsAddr(list []solana.Pubkey, addr solana.Pubkey) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
