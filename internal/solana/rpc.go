package solana

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Transaction Provider Interface
// ---------------------------------------------------------------------------

// TransactionProvider supplies transaction history and balances.
// Implementations: HeliusClient (live), StubProvider (testing).
type TransactionProvider interface {
	// FetchHistory returns up to limit most-recent parsed transactions for address.
	// It may return fewer. Rate-limit retries are handled internally.
	FetchHistory(ctx context.Context, address Pubkey, limit int) ([]TransactionRecord, error)

	// GetBalance returns the SOL balance of address.
	GetBalance(ctx context.Context, address Pubkey) (decimal.Decimal, error)

	// Health returns the provider endpoint health.
	Health(ctx context.Context) error
}

// ErrRateLimited is returned when the provider keeps answering 429 after the retry.
var ErrRateLimited = errors.New("rate limited")

// ProviderConfig configures the transaction provider.
type ProviderConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"` // enhanced transactions API, e.g. https://api.helius.xyz/v0
	RPCURL        string        `yaml:"rpc_url"`  // JSON-RPC endpoint for balances and health
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"` // admission gate size
	RetryDelay    time.Duration `yaml:"retry_delay"`    // wait before the single 429 retry
	PageSize      int           `yaml:"page_size"`      // max 100
	PageDelay     time.Duration `yaml:"page_delay"`
}

// DefaultProviderConfig returns development defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		BaseURL:       "https://api.helius.xyz/v0",
		RPCURL:        "https://mainnet.helius-rpc.com",
		Timeout:       30 * time.Second,
		MaxConcurrent: 10,
		RetryDelay:    time.Second,
		PageSize:      100,
		PageDelay:     100 * time.Millisecond,
	}
}

// ---------------------------------------------------------------------------
// Stub Provider (for testing and development)
// ---------------------------------------------------------------------------

// StubProvider is an in-memory provider for tests and offline runs.
type StubProvider struct {
	mu        sync.RWMutex
	histories map[Pubkey][]TransactionRecord
	balances  map[Pubkey]decimal.Decimal
	failures  map[Pubkey]error
	delays    map[Pubkey]time.Duration
	calls     map[Pubkey]int
	failNext  bool
}

// NewStubProvider creates an empty stub provider.
func NewStubProvider() *StubProvider {
	return &StubProvider{
		histories: make(map[Pubkey][]TransactionRecord),
		balances:  make(map[Pubkey]decimal.Decimal),
		failures:  make(map[Pubkey]error),
		delays:    make(map[Pubkey]time.Duration),
		calls:     make(map[Pubkey]int),
	}
}

// SetHistory registers the transactions returned for address.
func (s *StubProvider) SetHistory(address Pubkey, txs []TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[address] = txs
}

// AddTransaction appends tx to the history of every address it touches.
func (s *StubProvider) AddTransaction(tx TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[Pubkey]bool)
	add := func(addr Pubkey) {
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		s.histories[addr] = append(s.histories[addr], tx)
	}
	add(tx.FeePayer)
	for _, t := range tx.NativeTransfers {
		add(t.From)
		add(t.To)
	}
	for _, t := range tx.TokenTransfers {
		add(t.From)
		add(t.To)
	}
}

// SetBalance sets the SOL balance returned for address.
func (s *StubProvider) SetBalance(address Pubkey, sol decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[address] = sol
}

// SetFailure makes every fetch for address fail with err (nil clears it).
func (s *StubProvider) SetFailure(address Pubkey, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, address)
		return
	}
	s.failures[address] = err
}

// SetDelay makes fetches for address block for d or until the context ends.
func (s *StubProvider) SetDelay(address Pubkey, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[address] = d
}

// SetFailNext makes the next call fail.
func (s *StubProvider) SetFailNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = true
}

// Calls returns how many times FetchHistory was invoked for address.
func (s *StubProvider) Calls(address Pubkey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[address]
}

func (s *StubProvider) shouldFail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return true
	}
	return false
}

// --- Interface implementation ---

func (s *StubProvider) FetchHistory(ctx context.Context, address Pubkey, limit int) ([]TransactionRecord, error) {
	s.mu.Lock()
	s.calls[address]++
	delay := s.delays[address]
	failErr := s.failures[address]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.shouldFail() {
		return nil, fmt.Errorf("stub: simulated provider failure")
	}
	if failErr != nil {
		return nil, failErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	txs := s.histories[address]
	if limit >= 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	out := make([]TransactionRecord, len(txs))
	copy(out, txs)
	return out, nil
}

func (s *StubProvider) GetBalance(_ context.Context, address Pubkey) (decimal.Decimal, error) {
	if s.shouldFail() {
		return decimal.Zero, fmt.Errorf("stub: simulated provider failure")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[address], nil
}

func (s *StubProvider) Health(_ context.Context) error {
	if s.shouldFail() {
		return fmt.Errorf("stub: simulated provider failure")
	}
	return nil
}
