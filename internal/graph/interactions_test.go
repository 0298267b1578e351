package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-trading/walletlink/internal/solana"
)

// --- Helpers ---

func sol(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// at returns a timestamp that falls in the given UTC hour.
func at(day, hour int) int64 {
	return int64(86400*(100+day) + 3600*hour)
}

func xfer(from, to solana.Pubkey, amount string) solana.NativeTransfer {
	return solana.NativeTransfer{From: from, To: to, Amount: sol(amount)}
}

func mkTx(sig string, ts int64, feePayer solana.Pubkey, transfers ...solana.NativeTransfer) solana.TransactionRecord {
	return solana.TransactionRecord{
		Signature:       solana.Signature(sig),
		Timestamp:       solana.BlockTime(ts),
		FeePayer:        feePayer,
		NativeTransfers: transfers,
	}
}

// untimed drops the block time, as for records the provider could not date.
func untimed(tx solana.TransactionRecord) solana.TransactionRecord {
	tx.Timestamp = nil
	return tx
}

func snapshot(recs map[solana.Pubkey]*Interaction) map[solana.Pubkey]string {
	out := make(map[solana.Pubkey]string, len(recs))
	for addr, r := range recs {
		first, last := int64(-1), int64(-1)
		if r.FirstSeen != nil {
			first = *r.FirstSeen
		}
		if r.LastSeen != nil {
			last = *r.LastSeen
		}
		out[addr] = fmt.Sprintf("%d/%d %s/%s %s/%s %d-%d %v fee=%v bi=%v",
			r.SentCount, r.ReceivedCount,
			r.SentNative.String(), r.ReceivedNative.String(),
			r.SentStable.String(), r.ReceivedStable.String(),
			first, last, r.ActiveHours.Hours(), r.IsFeePayer, r.IsBidirectional)
	}
	return out
}

// --- Tests ---

func TestExtractInteractions_Basic(t *testing.T) {
	target := solana.Pubkey("Target")
	txs := []solana.TransactionRecord{
		mkTx("s1", at(0, 5), target, xfer(target, "Alpha", "1")),
		mkTx("s2", at(1, 7), "Alpha", xfer("Alpha", target, "2")),
		{
			Signature: "s3",
			Timestamp: solana.BlockTime(at(2, 9)),
			FeePayer:  target,
			TokenTransfers: []solana.TokenTransfer{
				{From: target, To: "Bravo", Mint: solana.USDCMint, Amount: sol("50")},
				{From: "Charlie", To: target, Mint: "SomeMemeMint", Amount: sol("1000")},
			},
		},
		mkTx("s4", at(3, 11), "Delta"),
	}

	recs := ExtractInteractions(txs, target, NewStableMints(solana.DefaultStableMints()))
	require.Len(t, recs, 4)
	assert.NotContains(t, recs, target)

	alpha := recs["Alpha"]
	assert.Equal(t, 1, alpha.SentCount)
	assert.Equal(t, 1, alpha.ReceivedCount)
	assert.True(t, alpha.SentNative.Equal(sol("1")))
	assert.True(t, alpha.ReceivedNative.Equal(sol("2")))
	assert.True(t, alpha.IsBidirectional)
	assert.True(t, alpha.IsFeePayer, "alpha paid the fee for s2")
	require.NotNil(t, alpha.FirstSeen)
	assert.Equal(t, at(0, 5), *alpha.FirstSeen)
	assert.Equal(t, at(1, 7), *alpha.LastSeen)
	assert.Equal(t, []int{5, 7}, alpha.ActiveHours.Hours())

	bravo := recs["Bravo"]
	assert.Equal(t, 1, bravo.SentCount)
	assert.True(t, bravo.SentStable.Equal(sol("50")))
	assert.True(t, bravo.SentNative.IsZero())

	charlie := recs["Charlie"]
	assert.Equal(t, 1, charlie.ReceivedCount)
	assert.True(t, charlie.ReceivedStable.IsZero(), "non-stable mints add no volume")
	assert.True(t, charlie.ReceivedNative.IsZero())

	delta := recs["Delta"]
	assert.True(t, delta.IsFeePayer)
	assert.Equal(t, 0, delta.TotalCount())
	assert.False(t, delta.IsBidirectional)
	assert.Equal(t, []int{11}, delta.ActiveHours.Hours())
}

func TestExtractInteractions_IgnoresSelfAndEmpty(t *testing.T) {
	target := solana.Pubkey("Target")
	txs := []solana.TransactionRecord{
		mkTx("s1", at(0, 1), target, xfer(target, target, "3"), xfer("", target, "1"), xfer(target, "", "1")),
	}
	recs := ExtractInteractions(txs, target, nil)
	assert.Empty(t, recs)
}

func TestExtractInteractions_NoTimestamp(t *testing.T) {
	target := solana.Pubkey("Target")
	recs := ExtractInteractions([]solana.TransactionRecord{
		untimed(mkTx("s1", 0, target, xfer("Alpha", target, "1"))),
	}, target, nil)

	alpha := recs["Alpha"]
	require.NotNil(t, alpha)
	assert.Nil(t, alpha.FirstSeen)
	assert.Nil(t, alpha.LastSeen)
	assert.Equal(t, 0, alpha.ActiveHours.Len())
}

func TestExtractInteractions_EpochZeroIsATime(t *testing.T) {
	target := solana.Pubkey("Target")
	recs := ExtractInteractions([]solana.TransactionRecord{
		mkTx("s1", 0, target, xfer("Alpha", target, "1")),
		mkTx("s2", 7200, target, xfer(target, "Alpha", "1")),
	}, target, nil)

	alpha := recs["Alpha"]
	require.NotNil(t, alpha)
	require.NotNil(t, alpha.FirstSeen)
	assert.Equal(t, int64(0), *alpha.FirstSeen)
	assert.Equal(t, int64(7200), *alpha.LastSeen)
	assert.Equal(t, []int{0, 2}, alpha.ActiveHours.Hours())
}

func TestExtractInteractions_OrderIndependent(t *testing.T) {
	target := solana.Pubkey("Target")
	var txs []solana.TransactionRecord
	peers := []solana.Pubkey{"Alpha", "Bravo", "Charlie", "Delta"}
	for i := 0; i < 40; i++ {
		peer := peers[i%len(peers)]
		var tr solana.NativeTransfer
		if i%3 == 0 {
			tr = xfer(peer, target, fmt.Sprintf("0.%d", i+1))
		} else {
			tr = xfer(target, peer, fmt.Sprintf("%d.25", i))
		}
		fee := target
		if i%7 == 0 {
			fee = "Echo"
		}
		txs = append(txs, mkTx(fmt.Sprintf("s%d", i), at(i, i%24), fee, tr))
	}
	stable := NewStableMints(solana.DefaultStableMints())
	want := snapshot(ExtractInteractions(txs, target, stable))

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		shuffled := append([]solana.TransactionRecord(nil), txs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, snapshot(ExtractInteractions(shuffled, target, stable)))
	}
}

func TestExtractInteractions_BidirectionalIff(t *testing.T) {
	target := solana.Pubkey("Target")
	txs := []solana.TransactionRecord{
		mkTx("s1", at(0, 1), target, xfer(target, "Alpha", "1")),
		mkTx("s2", at(0, 2), target, xfer("Alpha", target, "1")),
		mkTx("s3", at(0, 3), target, xfer(target, "Bravo", "1")),
		mkTx("s4", at(0, 4), "Charlie", xfer("Charlie", target, "1")),
	}
	for addr, rec := range ExtractInteractions(txs, target, nil) {
		assert.Equal(t, rec.SentCount > 0 && rec.ReceivedCount > 0, rec.IsBidirectional, addr)
	}
}

func TestHourSet(t *testing.T) {
	var h HourSet
	h.Add(1)
	h.Add(1)
	h.Add(23)
	h.Add(24)
	h.Add(-1)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, []int{1, 23}, h.Hours())

	var o HourSet
	assert.Equal(t, 0.0, h.Jaccard(o))
	o.Add(1)
	o.Add(2)
	assert.InDelta(t, 1.0/3.0, h.Jaccard(o), 1e-9)
	assert.Equal(t, 1.0, h.Jaccard(h))

	raw, err := h.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,23]`, string(raw))
}

func TestCountCommon(t *testing.T) {
	a := addrSet{"Alpha": {}, "Bravo": {}, "Charlie": {}}
	b := addrSet{"Bravo": {}, "Charlie": {}, "Delta": {}, "Echo": {}}
	assert.Equal(t, 2, countCommon(a, b))
	assert.Equal(t, 2, countCommon(b, a))
	assert.Equal(t, 0, countCommon(a, nil))
}
