package graph

import (
	"encoding/json"
	"math/bits"

	"github.com/shopspring/decimal"

	"github.com/nexus-trading/walletlink/internal/solana"
)

// ---------------------------------------------------------------------------
// Wallet attribution graph: per-analysis value types
// ---------------------------------------------------------------------------

// Signal is a tag recording which heuristic contributed to a score.
type Signal string

const (
	SignalFunder        Signal = "FUNDER"
	SignalSameFunder    Signal = "SAME_FUNDER"
	SignalSameFunderVia Signal = "SAME_FUNDER_VIA"
	SignalFeePayer      Signal = "FEE_PAYER"
	SignalBidirectional Signal = "BIDIRECTIONAL"
	SignalHighFreq      Signal = "HIGH_FREQ"
	SignalMedFreq       Signal = "MED_FREQ"
	SignalRoundAmount   Signal = "ROUND_AMT"
	SignalLargeTransfer Signal = "LARGE_XFER"
	SignalTiming        Signal = "TIMING"
	SignalCommonCPHigh  Signal = "COMMON_CP_HIGH"
	SignalCommonCP      Signal = "COMMON_CP"
)

// HourSet is a set of hour-of-day buckets in [0,23].
type HourSet uint32

// hourOf returns the UTC hour-of-day bucket of a unix timestamp.
func hourOf(ts int64) int {
	return int((ts / 3600) % 24)
}

// Add inserts hour; values outside [0,23] are ignored.
func (h *HourSet) Add(hour int) {
	if hour < 0 || hour > 23 {
		return
	}
	*h |= 1 << uint(hour)
}

func (h HourSet) Has(hour int) bool {
	return hour >= 0 && hour <= 23 && h&(1<<uint(hour)) != 0
}

func (h HourSet) Len() int {
	return bits.OnesCount32(uint32(h))
}

// Hours returns the members in ascending order.
func (h HourSet) Hours() []int {
	out := make([]int, 0, h.Len())
	for hour := 0; hour < 24; hour++ {
		if h.Has(hour) {
			out = append(out, hour)
		}
	}
	return out
}

// Jaccard returns |h ∩ o| / |h ∪ o|, or 0 when either set is empty.
func (h HourSet) Jaccard(o HourSet) float64 {
	if h == 0 || o == 0 {
		return 0
	}
	return float64((h & o).Len()) / float64((h | o).Len())
}

func (h HourSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hours())
}

// Interaction accumulates everything a viewpoint address did with one counterparty.
type Interaction struct {
	SentCount       int             `json:"sent_count"`
	ReceivedCount   int             `json:"received_count"`
	SentNative      decimal.Decimal `json:"sent_sol"`
	ReceivedNative  decimal.Decimal `json:"received_sol"`
	SentStable      decimal.Decimal `json:"sent_usd"`
	ReceivedStable  decimal.Decimal `json:"received_usd"`
	FirstSeen       *int64          `json:"first_seen,omitempty"`
	LastSeen        *int64          `json:"last_seen,omitempty"`
	ActiveHours     HourSet         `json:"active_hours"`
	IsFeePayer      bool            `json:"is_fee_payer"`
	IsBidirectional bool            `json:"is_bidirectional"`
}

// touch widens the timing window with ts; nil is ignored.
func (i *Interaction) touch(tsp *int64) {
	if tsp == nil {
		return
	}
	ts := *tsp
	if i.FirstSeen == nil || ts < *i.FirstSeen {
		v := ts
		i.FirstSeen = &v
	}
	if i.LastSeen == nil || ts > *i.LastSeen {
		v := ts
		i.LastSeen = &v
	}
	i.ActiveHours.Add(hourOf(ts))
}

// TotalCount is the number of asset transfers in either direction.
func (i *Interaction) TotalCount() int {
	return i.SentCount + i.ReceivedCount
}

// TotalNative is the combined SOL volume in either direction.
func (i *Interaction) TotalNative() decimal.Decimal {
	return i.SentNative.Add(i.ReceivedNative)
}

// TotalStable is the combined stablecoin volume in either direction.
func (i *Interaction) TotalStable() decimal.Decimal {
	return i.SentStable.Add(i.ReceivedStable)
}

// Connection is the scored view of an Interaction.
type Connection struct {
	Address solana.Pubkey `json:"address"`
	Interaction
	Score                float64         `json:"score"`
	Signals              []Signal        `json:"signals"`
	IsFunder             bool            `json:"is_funder"`
	CommonCounterparties int             `json:"common_counterparties"`
	HopLevel             int             `json:"hop_level"`
	ConnectedVia         []solana.Pubkey `json:"connected_via,omitempty"`
}

func newConnection(addr solana.Pubkey, rec *Interaction, hop int) *Connection {
	return &Connection{
		Address:     addr,
		Interaction: *rec,
		Signals:     []Signal{},
		HopLevel:    hop,
	}
}

// HasSignal reports whether s contributed to the score.
func (c *Connection) HasSignal(s Signal) bool {
	for _, have := range c.Signals {
		if have == s {
			return true
		}
	}
	return false
}

// addSignal accumulates a heuristic contribution. Negative weights are ignored.
func (c *Connection) addSignal(s Signal, weight float64) {
	if weight < 0 {
		weight = 0
	}
	c.Score += weight
	c.Signals = append(c.Signals, s)
}

func (c *Connection) resetScore() {
	c.Score = 0
	c.Signals = c.Signals[:0]
}

// CEXDeposit lists exchange addresses the target sent SOL to.
type CEXDeposit struct {
	Exchange  string          `json:"exchange"`
	Addresses []solana.Pubkey `json:"addresses"`
	Transfers int             `json:"transfers"`
	TotalSOL  decimal.Decimal `json:"total_sol"`
}

// AnalysisResult is the outcome of one Analyze call. When Error is set,
// every other field is empty.
type AnalysisResult struct {
	RunID                string          `json:"run_id,omitempty"`
	TargetAddress        solana.Pubkey   `json:"address,omitempty"`
	TransactionCount     int             `json:"transaction_count,omitempty"`
	Funder               solana.Pubkey   `json:"funder,omitempty"`
	FunderOfFunder       solana.Pubkey   `json:"funder_of_funder,omitempty"`
	SameFunderCluster    []solana.Pubkey `json:"same_funder_cluster,omitempty"`
	BidirectionalCluster []solana.Pubkey `json:"bidirectional_cluster,omitempty"`
	CEXDeposits          []CEXDeposit    `json:"cex_deposits,omitempty"`
	DirectConnections    []*Connection   `json:"direct_connections,omitempty"`
	Hop2Connections      []*Connection   `json:"hop2_connections,omitempty"`
	Error                string          `json:"error,omitempty"`
}

// Failed reports whether the result is the error variant.
func (r *AnalysisResult) Failed() bool {
	return r.Error != ""
}

// State is a Hop Orchestrator phase.
type State int

const (
	StateFetchingTarget State = iota
	StateExtractingHop1
	StateResolvingFunder
	StateFilteringHop1
	StateScoringHop1
	StateExpandingHop2
	StateMergingHop2
	StateDone
	StateErrored
)

var stateNames = [...]string{
	"FETCHING_TARGET",
	"EXTRACTING_HOP1",
	"RESOLVING_FUNDER",
	"FILTERING_HOP1",
	"SCORING_HOP1",
	"EXPANDING_HOP2",
	"MERGING_HOP2",
	"DONE",
	"ERRORED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}
