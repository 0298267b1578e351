package solana

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePubkey(t *testing.T) {
	pk, err := ParsePubkey("  So11111111111111111111111111111111111111112 ")
	require.NoError(t, err)
	assert.Equal(t, SOLMint, pk)

	_, err = ParsePubkey("11111111111111111111111111111111")
	assert.NoError(t, err)

	_, err = ParsePubkey("not-an-address")
	assert.Error(t, err)

	// Right length, but 0/O/I/l are outside the base58 alphabet.
	_, err = ParsePubkey("0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl")
	assert.Error(t, err)
}

func TestPubkeyShort(t *testing.T) {
	assert.Equal(t, "EPjF...Dt1v", USDCMint.Short())
	assert.Equal(t, "alice", Pubkey("alice").Short())
}

func TestLamportsToSOL(t *testing.T) {
	assert.True(t, LamportsToSOL(1_000_000_000).Equal(decimal.NewFromInt(1)))
	assert.True(t, LamportsToSOL(1).Equal(decimal.RequireFromString("0.000000001")))
	assert.Equal(t, "18446744073.709551615", LamportsToSOL(math.MaxUint64).String())
}

func TestStubProvider_History(t *testing.T) {
	stub := NewStubProvider()
	tx := TransactionRecord{
		Signature: "sig1",
		Timestamp: BlockTime(100),
		FeePayer:  "alice",
		NativeTransfers: []NativeTransfer{
			{From: "alice", To: "bob", Amount: decimal.NewFromInt(1)},
		},
	}
	stub.AddTransaction(tx)
	stub.AddTransaction(TransactionRecord{Signature: "sig2", FeePayer: "alice"})

	ctx := context.Background()
	txs, err := stub.FetchHistory(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	txs, err = stub.FetchHistory(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	txs, err = stub.FetchHistory(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, Signature("sig1"), txs[0].Signature)

	txs, err = stub.FetchHistory(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 2, stub.Calls("alice"))
}

func TestStubProvider_Failures(t *testing.T) {
	stub := NewStubProvider()
	ctx := context.Background()

	stub.SetFailNext()
	_, err := stub.FetchHistory(ctx, "alice", 10)
	assert.Error(t, err)
	_, err = stub.FetchHistory(ctx, "alice", 10)
	assert.NoError(t, err)

	boom := errors.New("boom")
	stub.SetFailure("alice", boom)
	_, err = stub.FetchHistory(ctx, "alice", 10)
	assert.ErrorIs(t, err, boom)
	stub.SetFailure("alice", nil)
	_, err = stub.FetchHistory(ctx, "alice", 10)
	assert.NoError(t, err)
}

func TestStubProvider_DelayHonorsContext(t *testing.T) {
	stub := NewStubProvider()
	stub.SetDelay("slow", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := stub.FetchHistory(ctx, "slow", 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdmissionGate(t *testing.T) {
	gate := NewAdmissionGate(1)
	ctx := context.Background()
	require.NoError(t, gate.Acquire(ctx))
	assert.Equal(t, int64(1), gate.InFlight())

	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, gate.Acquire(blocked))
	assert.Equal(t, int64(1), gate.Waits())

	gate.Release()
	assert.Equal(t, int64(0), gate.InFlight())
	assert.Equal(t, int64(1), NewAdmissionGate(0).Size())
}
