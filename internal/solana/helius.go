package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Helius client: enhanced transactions API plus JSON-RPC, behind an admission gate
// ---------------------------------------------------------------------------

// RequestObserver receives one callback per HTTP round trip.
// status is 0 when the request failed before a response arrived.
type RequestObserver interface {
	ObserveProviderRequest(method string, status int, elapsed time.Duration)
}

// HeliusClient fetches parsed transaction history from Helius.
type HeliusClient struct {
	config     ProviderConfig
	httpClient *http.Client
	gate       *AdmissionGate
	observer   RequestObserver

	// Unique request ID generator.
	nextID atomic.Int64

	// Stats.
	requestCount  atomic.Int64
	errorCount    atomic.Int64
	rateLimited   atomic.Int64
	latencySum    atomic.Int64 // cumulative microseconds
	lastRequestAt atomic.Int64
}

const maxPageSize = 100

// NewHeliusClient creates a Helius client. A nil gate gets a private gate
// sized from config.MaxConcurrent.
func NewHeliusClient(config ProviderConfig, gate *AdmissionGate) *HeliusClient {
	defaults := DefaultProviderConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxConcurrent == 0 {
		config.MaxConcurrent = defaults.MaxConcurrent
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.PageSize <= 0 || config.PageSize > maxPageSize {
		config.PageSize = maxPageSize
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if gate == nil {
		gate = NewAdmissionGate(config.MaxConcurrent)
	}

	return &HeliusClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		gate: gate,
	}
}

// SetObserver installs a per-request observer (metrics).
func (c *HeliusClient) SetObserver(o RequestObserver) {
	c.observer = o
}

// Gate returns the admission gate shared by this client.
func (c *HeliusClient) Gate() *AdmissionGate {
	return c.gate
}

// heliusTransaction mirrors the enhanced transaction payload fields we consume.
type heliusTransaction struct {
	Signature       string `json:"signature"`
	Timestamp       *int64 `json:"timestamp"`
	FeePayer        string `json:"feePayer"`
	NativeTransfers []struct {
		FromUserAccount string `json:"fromUserAccount"`
		ToUserAccount   string `json:"toUserAccount"`
		Amount          uint64 `json:"amount"` // lamports
	} `json:"nativeTransfers"`
	TokenTransfers []struct {
		FromUserAccount string          `json:"fromUserAccount"`
		ToUserAccount   string          `json:"toUserAccount"`
		Mint            string          `json:"mint"`
		TokenAmount     decimal.Decimal `json:"tokenAmount"`
	} `json:"tokenTransfers"`
}

func (h heliusTransaction) record() TransactionRecord {
	rec := TransactionRecord{
		Signature: Signature(h.Signature),
		Timestamp: h.Timestamp,
		FeePayer:  Pubkey(h.FeePayer),
	}
	for _, nt := range h.NativeTransfers {
		rec.NativeTransfers = append(rec.NativeTransfers, NativeTransfer{
			From:   Pubkey(nt.FromUserAccount),
			To:     Pubkey(nt.ToUserAccount),
			Amount: LamportsToSOL(nt.Amount),
		})
	}
	for _, tt := range h.TokenTransfers {
		rec.TokenTransfers = append(rec.TokenTransfers, TokenTransfer{
			From:   Pubkey(tt.FromUserAccount),
			To:     Pubkey(tt.ToUserAccount),
			Mint:   Pubkey(tt.Mint),
			Amount: tt.TokenAmount,
		})
	}
	return rec
}

// FetchHistory pages backwards through the address history until limit
// records are collected or the history is exhausted.
func (c *HeliusClient) FetchHistory(ctx context.Context, address Pubkey, limit int) ([]TransactionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	out := make([]TransactionRecord, 0, limit)
	before := ""
	for len(out) < limit {
		pageSize := min(limit-len(out), c.config.PageSize)
		page, err := c.fetchPage(ctx, address, pageSize, before)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			break
		}
		before = string(page[len(page)-1].Signature)
		if before == "" {
			break
		}
		if c.config.PageDelay > 0 && len(out) < limit {
			select {
			case <-time.After(c.config.PageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	log.Debug().
		Str("address", string(address)).
		Int("count", len(out)).
		Int("limit", limit).
		Msg("helius: history fetched")
	return out, nil
}

func (c *HeliusClient) fetchPage(ctx context.Context, address Pubkey, limit int, before string) ([]TransactionRecord, error) {
	params := url.Values{}
	params.Set("api-key", c.config.APIKey)
	params.Set("limit", strconv.Itoa(limit))
	if before != "" {
		params.Set("before", before)
	}
	endpoint := fmt.Sprintf("%s/addresses/%s/transactions?%s", c.config.BaseURL, url.PathEscape(string(address)), params.Encode())

	body, err := c.do(ctx, "transactions", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, err
	}

	var raw []heliusTransaction
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("helius: parse transactions: %w", err)
	}
	records := make([]TransactionRecord, 0, len(raw))
	for _, h := range raw {
		records = append(records, h.record())
	}
	return records, nil
}

// rpcRequest is a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call makes a gated JSON-RPC call against the RPC endpoint.
func (c *HeliusClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if c.config.RPCURL == "" {
		return nil, fmt.Errorf("helius: %s: rpc_url not configured", method)
	}

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("helius: marshal request: %w", err)
	}

	endpoint := c.config.RPCURL
	if c.config.APIKey != "" && !strings.Contains(endpoint, "api-key=") {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + "api-key=" + url.QueryEscape(c.config.APIKey)
	}

	body, err := c.do(ctx, method, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("helius: %s unmarshal response: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("helius: %s error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// do performs one gated round trip. A 429 is retried exactly once after
// RetryDelay; the gate slot is not held while waiting.
func (c *HeliusClient) do(ctx context.Context, label string, build func() (*http.Request, error)) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("helius: %s create request: %w", label, err)
		}

		status, body, err := c.roundTrip(ctx, label, req)
		if err != nil {
			return nil, err
		}

		if status == http.StatusTooManyRequests {
			c.rateLimited.Add(1)
			if attempt > 0 {
				return nil, fmt.Errorf("helius: %s: %w", label, ErrRateLimited)
			}
			log.Warn().Str("method", label).Dur("retry_in", c.config.RetryDelay).Msg("helius: rate limited, retrying once")
			select {
			case <-time.After(c.config.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		if status != http.StatusOK {
			c.errorCount.Add(1)
			return nil, fmt.Errorf("helius: %s HTTP %d: %s", label, status, truncate(string(body), 200))
		}
		return body, nil
	}
}

func (c *HeliusClient) roundTrip(ctx context.Context, label string, req *http.Request) (int, []byte, error) {
	if err := c.gate.Acquire(ctx); err != nil {
		return 0, nil, fmt.Errorf("helius: %s admission: %w", label, err)
	}
	defer c.gate.Release()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.errorCount.Add(1)
		c.observe(label, 0, time.Since(start))
		return 0, nil, fmt.Errorf("helius: %s http error: %w", label, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.errorCount.Add(1)
		c.observe(label, resp.StatusCode, time.Since(start))
		return 0, nil, fmt.Errorf("helius: %s read response: %w", label, err)
	}

	latency := time.Since(start)
	c.requestCount.Add(1)
	c.latencySum.Add(latency.Microseconds())
	c.lastRequestAt.Store(time.Now().UnixMilli())
	c.observe(label, resp.StatusCode, latency)
	return resp.StatusCode, body, nil
}

func (c *HeliusClient) observe(label string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveProviderRequest(label, status, elapsed)
	}
}

// GetBalance returns the SOL balance via getBalance.
func (c *HeliusClient) GetBalance(ctx context.Context, address Pubkey) (decimal.Decimal, error) {
	result, err := c.call(ctx, "getBalance", []any{string(address)})
	if err != nil {
		return decimal.Zero, err
	}
	var balResp struct {
		Value uint64 `json:"value"`
	}
	if err := json.Unmarshal(result, &balResp); err != nil {
		return decimal.Zero, fmt.Errorf("helius: parse balance: %w", err)
	}
	return LamportsToSOL(balResp.Value), nil
}

// Health checks the RPC endpoint health.
func (c *HeliusClient) Health(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.call(healthCtx, "getHealth", nil)
	return err
}

// ProviderStats returns client statistics.
type ProviderStats struct {
	RequestCount  int64 `json:"request_count"`
	ErrorCount    int64 `json:"error_count"`
	RateLimited   int64 `json:"rate_limited"`
	AvgLatencyUs  int64 `json:"avg_latency_us"`
	LastRequestAt int64 `json:"last_request_at"`
	InFlight      int64 `json:"in_flight"`
	GateWaits     int64 `json:"gate_waits"`
}

func (c *HeliusClient) Stats() ProviderStats {
	reqCount := c.requestCount.Load()
	avgLatency := int64(0)
	if reqCount > 0 {
		avgLatency = c.latencySum.Load() / reqCount
	}
	return ProviderStats{
		RequestCount:  reqCount,
		ErrorCount:    c.errorCount.Load(),
		RateLimited:   c.rateLimited.Load(),
		AvgLatencyUs:  avgLatency,
		LastRequestAt: c.lastRequestAt.Load(),
		InFlight:      c.gate.InFlight(),
		GateWaits:     c.gate.Waits(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
