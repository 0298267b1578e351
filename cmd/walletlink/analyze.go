package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-trading/walletlink/internal/audit"
	"github.com/nexus-trading/walletlink/internal/graph"
	"github.com/nexus-trading/walletlink/internal/report"
	"github.com/nexus-trading/walletlink/internal/solana"
)

var (
	jsonOutput bool
	noColor    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <address>",
	Short: "Analyze one wallet and print the connection report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := solana.ParsePubkey(args[0])
		if err != nil {
			return err
		}
		rt, err := buildRuntime("walletlink-cli")
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, rt.cfg.Server.AnalyzeTimeout)
		defer cancel()

		start := time.Now()
		result := rt.analyzer.AnalyzeWithProgress(ctx, target, func(s graph.State) {
			log.Debug().Str("state", s.String()).Msg("Analysis progress")
		})
		rt.trail.RecordAnalysis(audit.SourceCLI, target, result, time.Since(start))

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		opts := report.DefaultOptions()
		opts.NoColor = noColor
		opts.Scorer = rt.analyzer.Scorer()
		a := rt.analyzer.Config()
		opts.Policy = graph.SpamPolicy{
			SOLPriceUSD:    a.SOLPriceUSD,
			MinValueUSD:    a.MinValueUSD,
			MinMaterialUSD: a.MinMaterialUSD,
		}
		if !result.Failed() {
			if bal, err := rt.provider.GetBalance(ctx, target); err != nil {
				log.Warn().Err(err).Str("address", target.String()).Msg("Balance lookup failed")
			} else {
				opts.Balance = &bal
			}
		}
		report.NewPrinter(opts).Render(cmd.OutOrStdout(), result)

		if result.Failed() {
			return fmt.Errorf("analysis failed")
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw JSON result")
	analyzeCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(analyzeCmd)
}
