// Package report renders an AnalysisResult for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/nexus-trading/walletlink/internal/graph"
	"github.com/nexus-trading/walletlink/internal/solana"
)

// Score tiers.
const (
	CriticalScore = 100
	StrongScore   = 50
	MediumScore   = 25
)

// Options controls what the report shows.
type Options struct {
	Balance    *decimal.Decimal // target SOL balance; nil when unavailable
	Policy     graph.SpamPolicy // values connections in USD
	Scorer     *graph.Scorer    // legend weights; nil hides them
	MaxHop1    int
	MaxHop2    int
	MaxCluster int
	NoColor    bool
}

// DefaultOptions returns the standard display limits.
func DefaultOptions() Options {
	return Options{
		Policy:     graph.DefaultSpamPolicy(),
		MaxHop1:    12,
		MaxHop2:    8,
		MaxCluster: 5,
	}
}

var legend = []struct {
	sig  graph.Signal
	desc string
}{
	{graph.SignalFunder, "first wallet to send SOL to the target"},
	{graph.SignalSameFunder, "funded by the target's funder"},
	{graph.SignalSameFunderVia, "hop 2 wallet funded by the target's funder"},
	{graph.SignalFeePayer, "paid fees on the target's transactions"},
	{graph.SignalBidirectional, "transfers in both directions"},
	{graph.SignalHighFreq, "10+ interactions"},
	{graph.SignalMedFreq, "5-9 interactions"},
	{graph.SignalRoundAmount, "round SOL amounts"},
	{graph.SignalLargeTransfer, "large SOL transfer"},
	{graph.SignalTiming, "active in the same hours"},
	{graph.SignalCommonCPHigh, "5+ shared counterparties"},
	{graph.SignalCommonCP, "3-4 shared counterparties"},
}

// Printer writes colored reports.
type Printer struct {
	opts Options

	header   *color.Color
	addr     *color.Color
	signal   *color.Color
	muted    *color.Color
	critical *color.Color
	strong   *color.Color
	medium   *color.Color
	weak     *color.Color
	failure  *color.Color
}

// NewPrinter builds a printer. Zero limits fall back to DefaultOptions.
func NewPrinter(opts Options) *Printer {
	def := DefaultOptions()
	if opts.MaxHop1 <= 0 {
		opts.MaxHop1 = def.MaxHop1
	}
	if opts.MaxHop2 <= 0 {
		opts.MaxHop2 = def.MaxHop2
	}
	if opts.MaxCluster <= 0 {
		opts.MaxCluster = def.MaxCluster
	}
	if opts.Policy.SOLPriceUSD <= 0 {
		opts.Policy = def.Policy
	}

	p := &Printer{
		opts:     opts,
		header:   color.New(color.FgCyan, color.Bold),
		addr:     color.New(color.FgWhite, color.Bold),
		signal:   color.New(color.FgMagenta),
		muted:    color.New(color.FgHiBlack),
		critical: color.New(color.FgRed, color.Bold),
		strong:   color.New(color.FgHiYellow, color.Bold),
		medium:   color.New(color.FgYellow),
		weak:     color.New(color.FgWhite),
		failure:  color.New(color.FgRed),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{p.header, p.addr, p.signal, p.muted,
			p.critical, p.strong, p.medium, p.weak, p.failure} {
			c.DisableColor()
		}
	}
	return p
}

// Tier names the strength band of a score.
func Tier(score float64) string {
	switch {
	case score >= CriticalScore:
		return "CRITICAL"
	case score >= StrongScore:
		return "STRONG"
	case score >= MediumScore:
		return "MEDIUM"
	}
	return "WEAK"
}

func (p *Printer) tierColor(score float64) *color.Color {
	switch {
	case score >= CriticalScore:
		return p.critical
	case score >= StrongScore:
		return p.strong
	case score >= MediumScore:
		return p.medium
	}
	return p.weak
}

const rule = "---------------------------------------------"

// Render writes the full report for r.
func (p *Printer) Render(w io.Writer, r *graph.AnalysisResult) {
	if r.Failed() {
		p.failure.Fprintf(w, "Error: %s\n", r.Error)
		return
	}

	p.header.Fprintln(w, "WALLET ANALYSIS REPORT")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Target:       %s\n", p.addr.Sprint(r.TargetAddress))
	fmt.Fprintf(w, "Transactions: %d\n", r.TransactionCount)
	if p.opts.Balance != nil {
		fmt.Fprintf(w, "Balance:      %s SOL\n", p.opts.Balance.StringFixed(4))
	}
	fmt.Fprintln(w)

	p.renderFunding(w, r)
	p.renderCluster(w, "SAME FUNDER CLUSTER (likely same owner)", r.SameFunderCluster, false)
	p.renderHop1(w, r.DirectConnections)
	p.renderCluster(w, "BIDIRECTIONAL TRANSFERS", r.BidirectionalCluster, true)
	p.renderCEX(w, r.CEXDeposits)
	p.renderHop2(w, r.Hop2Connections)
	p.renderLegend(w)
}

func (p *Printer) renderFunding(w io.Writer, r *graph.AnalysisResult) {
	if r.Funder == "" {
		return
	}
	p.header.Fprintln(w, "FUNDING CHAIN")
	fmt.Fprintf(w, "  funder:           %s\n", p.addr.Sprint(r.Funder))
	if r.FunderOfFunder != "" {
		fmt.Fprintf(w, "  funder's funder:  %s\n", r.FunderOfFunder.Short())
	}
	fmt.Fprintln(w)
}

func (p *Printer) renderCluster(w io.Writer, title string, addrs []solana.Pubkey, short bool) {
	if len(addrs) == 0 {
		return
	}
	p.header.Fprintln(w, title)
	for i, a := range addrs {
		if i == p.opts.MaxCluster {
			p.muted.Fprintf(w, "  ... and %d more\n", len(addrs)-i)
			break
		}
		s := a.String()
		if short {
			s = a.Short()
		}
		fmt.Fprintf(w, "  - %s\n", s)
	}
	fmt.Fprintln(w)
}

func (p *Printer) renderHop1(w io.Writer, conns []*graph.Connection) {
	p.header.Fprintln(w, "DIRECT CONNECTIONS (hop 1)")
	fmt.Fprintln(w, rule)
	if len(conns) == 0 {
		fmt.Fprintln(w, "No direct connections found.")
		fmt.Fprintln(w)
		return
	}
	for i, c := range conns {
		if i == p.opts.MaxHop1 {
			break
		}
		p.tierColor(c.Score).Fprintf(w, "#%d %-8s score %s\n", i+1, Tier(c.Score), formatScore(c.Score))
		fmt.Fprintf(w, "   %s\n", p.addr.Sprint(c.Address))
		if len(c.Signals) > 0 {
			fmt.Fprintf(w, "   %s\n", p.signal.Sprint(formatSignals(c.Signals)))
		}
		if details := flowDetails(&c.Interaction); details != "" {
			fmt.Fprintf(w, "   %s\n", details)
		}
		if v := p.opts.Policy.TotalValueUSD(&c.Interaction); v.IsPositive() {
			p.muted.Fprintf(w, "   total ~$%s\n", v.StringFixed(0))
		}
		fmt.Fprintln(w)
	}
}

func (p *Printer) renderCEX(w io.Writer, deposits []graph.CEXDeposit) {
	if len(deposits) == 0 {
		return
	}
	p.header.Fprintln(w, "CEX DEPOSITS")
	for _, d := range deposits {
		fmt.Fprintf(w, "  %-12s %d transfer(s), %s SOL\n", d.Exchange, d.Transfers, d.TotalSOL.String())
		for _, a := range d.Addresses {
			p.muted.Fprintf(w, "    %s\n", a.Short())
		}
	}
	fmt.Fprintln(w)
}

func (p *Printer) renderHop2(w io.Writer, conns []*graph.Connection) {
	if len(conns) == 0 {
		return
	}
	p.header.Fprintln(w, "SECONDARY CONNECTIONS (hop 2)")
	fmt.Fprintln(w, rule)
	for i, c := range conns {
		if i == p.opts.MaxHop2 {
			break
		}
		p.tierColor(c.Score).Fprintf(w, "#%d score %s\n", i+1, formatScore(c.Score))
		fmt.Fprintf(w, "   %s\n", p.addr.Sprint(c.Address))
		if len(c.ConnectedVia) > 0 {
			via := make([]string, 0, 2)
			for _, v := range c.ConnectedVia[:min(2, len(c.ConnectedVia))] {
				via = append(via, v.Short())
			}
			fmt.Fprintf(w, "   via: %s\n", strings.Join(via, ", "))
		}
		if len(c.Signals) > 0 {
			fmt.Fprintf(w, "   %s\n", p.signal.Sprint(formatSignals(c.Signals)))
		}
		if c.CommonCounterparties > 0 {
			fmt.Fprintf(w, "   %d common counterparties\n", c.CommonCounterparties)
		}
		fmt.Fprintln(w)
	}
}

func (p *Printer) renderLegend(w io.Writer) {
	fmt.Fprintln(w, rule)
	p.header.Fprintln(w, "SIGNAL LEGEND")
	for _, l := range legend {
		if p.opts.Scorer != nil {
			fmt.Fprintf(w, "  %-16s %-5s %s\n", l.sig, "+"+formatScore(p.opts.Scorer.WeightOf(l.sig)), l.desc)
			continue
		}
		fmt.Fprintf(w, "  %-16s %s\n", l.sig, l.desc)
	}
}

func formatSignals(sigs []graph.Signal) string {
	parts := make([]string, len(sigs))
	for i, s := range sigs {
		parts[i] = "[" + string(s) + "]"
	}
	return strings.Join(parts, " ")
}

func flowDetails(i *graph.Interaction) string {
	var parts []string
	if i.SentNative.IsPositive() {
		parts = append(parts, "sent "+i.SentNative.String()+" SOL")
	}
	if i.ReceivedNative.IsPositive() {
		parts = append(parts, "recv "+i.ReceivedNative.String()+" SOL")
	}
	if i.SentStable.IsPositive() {
		parts = append(parts, "sent $"+i.SentStable.StringFixed(2))
	}
	if i.ReceivedStable.IsPositive() {
		parts = append(parts, "recv $"+i.ReceivedStable.StringFixed(2))
	}
	return strings.Join(parts, ", ")
}

// formatScore drops a trailing ".0".
func formatScore(v float64) string {
	return decimal.NewFromFloat(v).Round(1).String()
}
