package graph

import (
	"sort"

	"github.com/nexus-trading/walletlink/internal/solana"
)

// hop2Damping scales every contribution after the first one an address receives.
const hop2Damping = 0.5

// mergeHop2 folds branch contributions into one ranked hop-2 list.
// Branches are visited in hop-1 rank order and each branch in address
// order, so the damping always lands on the same contributions. Addresses
// already in hop1, and the target, are dropped.
func mergeHop2(branches []*branchResult, hop1 addrSet, target solana.Pubkey) []*Connection {
	merged := make(map[solana.Pubkey]*Connection)
	for _, br := range branches {
		if br == nil {
			continue
		}
		for _, addr := range sortedAddrs(br.conns) {
			if addr == target || hop1.has(addr) {
				continue
			}
			c := br.conns[addr]
			existing, ok := merged[addr]
			if !ok {
				merged[addr] = c
				continue
			}
			existing.Score += c.Score * hop2Damping
			existing.ConnectedVia = append(existing.ConnectedVia, c.ConnectedVia...)
			if c.CommonCounterparties > existing.CommonCounterparties {
				existing.CommonCounterparties = c.CommonCounterparties
			}
			for _, sig := range c.Signals {
				if !existing.HasSignal(sig) {
					existing.Signals = append(existing.Signals, sig)
				}
			}
		}
	}
	return rank(merged)
}

// rank orders connections by score descending, then address ascending.
func rank(conns map[solana.Pubkey]*Connection) []*Connection {
	out := make([]*Connection, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Address < out[j].Address
	})
	return out
}
