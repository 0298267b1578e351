package solana

import (
	"fmt"
	"math/big"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Pubkey is a Solana public key (base58 string).
type Pubkey string

// Signature is a Solana transaction signature.
type Signature string

func (p Pubkey) String() string { return string(p) }

// Short returns an abbreviated form for display, e.g. "7xKX...9fQz".
func (p Pubkey) Short() string {
	s := string(p)
	if len(s) <= 12 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// ParsePubkey validates a user-supplied address and returns its canonical form.
func ParsePubkey(s string) (Pubkey, error) {
	s = strings.TrimSpace(s)
	if len(s) < 32 || len(s) > 44 {
		return "", fmt.Errorf("invalid address %q: expected 32-44 base58 characters", s)
	}
	pk, err := solanago.PublicKeyFromBase58(s)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Pubkey(pk.String()), nil
}

// ---------------------------------------------------------------------------
// Transaction types
// ---------------------------------------------------------------------------

// NativeTransfer is a SOL movement inside a transaction. Amount is in SOL.
type NativeTransfer struct {
	From   Pubkey          `json:"from"`
	To     Pubkey          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// TokenTransfer is an SPL token movement inside a transaction. Amount is in
// UI units (already scaled by the mint's decimals).
type TokenTransfer struct {
	From   Pubkey          `json:"from"`
	To     Pubkey          `json:"to"`
	Mint   Pubkey          `json:"mint"`
	Amount decimal.Decimal `json:"amount"`
}

// TransactionRecord is a parsed transaction as returned by a TransactionProvider.
type TransactionRecord struct {
	Signature       Signature        `json:"signature"`
	Timestamp       *int64           `json:"timestamp,omitempty"` // unix seconds, nil when the block time is unknown
	FeePayer        Pubkey           `json:"fee_payer"`
	NativeTransfers []NativeTransfer `json:"native_transfers"`
	TokenTransfers  []TokenTransfer  `json:"token_transfers"`
}

// HasTimestamp reports whether the record carries a block time. Zero is a
// valid time.
func (t TransactionRecord) HasTimestamp() bool {
	return t.Timestamp != nil
}

// BlockTime returns a pointer to ts, for building records.
func BlockTime(ts int64) *int64 {
	return &ts
}

// LamportsToSOL converts a lamport amount to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}

// Well-known mints.
const (
	SOLMint  Pubkey = "So11111111111111111111111111111111111111112"
	USDCMint Pubkey = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint Pubkey = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	USDHMint Pubkey = "USDH1SM1ojwWUga67PGrgFWUHibbjqMvuMaDkRJTgkX"
	USDSMint Pubkey = "USDSwr9ApdHk5bvJKMjzff41FfuX8bSxdKcR81vTwcA"
)

// DefaultStableMints lists the fiat-pegged mints valued 1:1 with USD.
func DefaultStableMints() []string {
	return []string{string(USDCMint), string(USDTMint), string(USDHMint), string(USDSMint)}
}
