package graph

import (
	"sort"

	"github.com/nexus-trading/walletlink/internal/solana"
)

// StableMints is the set of token mints valued 1:1 in USD.
type StableMints map[solana.Pubkey]struct{}

// NewStableMints builds a set from mint addresses.
func NewStableMints(mints []string) StableMints {
	s := make(StableMints, len(mints))
	for _, m := range mints {
		s[solana.Pubkey(m)] = struct{}{}
	}
	return s
}

func (s StableMints) Contains(mint solana.Pubkey) bool {
	_, ok := s[mint]
	return ok
}

// ExtractInteractions folds txs into one Interaction per counterparty, seen
// from viewpoint. The fold does not depend on transaction order.
func ExtractInteractions(txs []solana.TransactionRecord, viewpoint solana.Pubkey, stable StableMints) map[solana.Pubkey]*Interaction {
	out := make(map[solana.Pubkey]*Interaction)

	for i := range txs {
		tx := &txs[i]

		for _, t := range tx.NativeTransfers {
			switch {
			case t.From == viewpoint && t.To != "" && t.To != viewpoint:
				rec := getOrInsert(out, t.To)
				rec.SentCount++
				rec.SentNative = rec.SentNative.Add(t.Amount)
				rec.touch(tx.Timestamp)
			case t.To == viewpoint && t.From != "" && t.From != viewpoint:
				rec := getOrInsert(out, t.From)
				rec.ReceivedCount++
				rec.ReceivedNative = rec.ReceivedNative.Add(t.Amount)
				rec.touch(tx.Timestamp)
			}
		}

		for _, t := range tx.TokenTransfers {
			isStable := stable.Contains(t.Mint)
			switch {
			case t.From == viewpoint && t.To != "" && t.To != viewpoint:
				rec := getOrInsert(out, t.To)
				rec.SentCount++
				if isStable {
					rec.SentStable = rec.SentStable.Add(t.Amount)
				}
				rec.touch(tx.Timestamp)
			case t.To == viewpoint && t.From != "" && t.From != viewpoint:
				rec := getOrInsert(out, t.From)
				rec.ReceivedCount++
				if isStable {
					rec.ReceivedStable = rec.ReceivedStable.Add(t.Amount)
				}
				rec.touch(tx.Timestamp)
			}
		}

		if tx.FeePayer != "" && tx.FeePayer != viewpoint {
			rec := getOrInsert(out, tx.FeePayer)
			rec.IsFeePayer = true
			rec.touch(tx.Timestamp)
		}
	}

	for _, rec := range out {
		rec.IsBidirectional = rec.SentCount > 0 && rec.ReceivedCount > 0
	}
	return out
}

func getOrInsert(m map[solana.Pubkey]*Interaction, addr solana.Pubkey) *Interaction {
	rec, ok := m[addr]
	if !ok {
		rec = &Interaction{}
		m[addr] = rec
	}
	return rec
}

// activeHours collects the hour buckets of every timestamped transaction.
func activeHours(txs []solana.TransactionRecord) HourSet {
	var h HourSet
	for _, tx := range txs {
		if tx.HasTimestamp() {
			h.Add(hourOf(*tx.Timestamp))
		}
	}
	return h
}

type addrSet map[solana.Pubkey]struct{}

func keySet[V any](m map[solana.Pubkey]V) addrSet {
	s := make(addrSet, len(m))
	for k := range m {
		s[k] = struct{}{}
	}
	return s
}

func (s addrSet) has(addr solana.Pubkey) bool {
	_, ok := s[addr]
	return ok
}

// countCommon returns |a ∩ b|.
func countCommon(a, b addrSet) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if b.has(k) {
			n++
		}
	}
	return n
}

func sortedAddrs[V any](m map[solana.Pubkey]V) []solana.Pubkey {
	keys := make([]solana.Pubkey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
