package audit

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexus-trading/walletlink/internal/graph"
	"github.com/nexus-trading/walletlink/internal/solana"
)

// Entry sources.
const (
	SourceHTTP = "http"
	SourceWS   = "ws"
	SourceCLI  = "cli"
)

// Entry outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Entry summarizes one finished analysis. Payload carries the full result
// JSON so a run can be replayed without re-querying the provider.
type Entry struct {
	RunID      string        `json:"run_id,omitempty"`
	Address    solana.Pubkey `json:"address"`
	Source     string        `json:"source"`
	Outcome    string        `json:"outcome"` // ok|error
	Error      string        `json:"error,omitempty"`
	Timestamp  time.Time     `json:"ts"`
	ElapsedMs  int64         `json:"elapsed_ms"`
	TxCount    int           `json:"tx_count"`
	Funder     solana.Pubkey `json:"funder,omitempty"`
	Hop1       int           `json:"hop1"`
	Hop2       int           `json:"hop2"`
	TopAddress solana.Pubkey `json:"top_address,omitempty"`
	TopScore   float64       `json:"top_score,omitempty"`
	Payload    string        `json:"payload,omitempty"`
}

// Trail keeps the most recent analyses in memory (capped at maxBuf) and
// optionally appends every entry as a JSON line to a sink.
type Trail struct {
	mu      sync.Mutex
	sink    io.Writer
	entries []Entry
	maxBuf  int
}

// NewTrail creates a trail. A maxBuf of 0 disables in-memory buffering; a
// nil sink disables the JSON-lines log.
func NewTrail(sink io.Writer, maxBuf int) *Trail {
	if maxBuf < 0 {
		maxBuf = 0
	}
	return &Trail{
		sink:    sink,
		entries: make([]Entry, 0, maxBuf),
		maxBuf:  maxBuf,
	}
}

// RecordAnalysis logs one result. target is passed separately because error
// results carry no address.
func (t *Trail) RecordAnalysis(source string, target solana.Pubkey, result *graph.AnalysisResult, elapsed time.Duration) Entry {
	entry := Entry{
		RunID:     result.RunID,
		Address:   target,
		Source:    source,
		Outcome:   OutcomeOK,
		Timestamp: time.Now().UTC(),
		ElapsedMs: elapsed.Milliseconds(),
		TxCount:   result.TransactionCount,
		Funder:    result.Funder,
		Hop1:      len(result.DirectConnections),
		Hop2:      len(result.Hop2Connections),
		Payload:   mustMarshal(result),
	}
	if result.Failed() {
		entry.Outcome = OutcomeError
		entry.Error = result.Error
	}
	if len(result.DirectConnections) > 0 {
		top := result.DirectConnections[0]
		entry.TopAddress, entry.TopScore = top.Address, top.Score
	}

	t.record(entry)
	return entry
}

// Query returns buffered entries for address, newest first.
func (t *Trail) Query(address solana.Pubkey) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var result []Entry
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Address == address {
			result = append(result, t.entries[i])
		}
	}
	return result
}

// Recent returns up to n buffered entries, newest first. n <= 0 means all.
func (t *Trail) Recent(n int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 || n > len(t.entries) {
		n = len(t.entries)
	}
	result := make([]Entry, 0, n)
	for i := len(t.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, t.entries[i])
	}
	return result
}

// Len returns the number of buffered entries.
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// record buffers the entry with FIFO eviction and appends it to the sink.
func (t *Trail) record(entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxBuf > 0 {
		if len(t.entries) >= t.maxBuf {
			copy(t.entries, t.entries[1:])
			t.entries[len(t.entries)-1] = entry
		} else {
			t.entries = append(t.entries, entry)
		}
	}

	// The sink write stays under the lock so lines never interleave.
	if t.sink != nil {
		line, err := json.Marshal(entry)
		if err == nil {
			_, err = t.sink.Write(append(line, '\n'))
		}
		if err != nil {
			log.Error().Err(err).
				Str("run_id", entry.RunID).
				Str("address", entry.Address.String()).
				Msg("audit: failed to write entry")
		}
	}
}

// mustMarshal marshals v to JSON, returning "{}" on error.
func mustMarshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("audit: failed to marshal payload")
		return "{}"
	}
	return string(data)
}
