package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-trading/walletlink/internal/api"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket analysis service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := buildRuntime("walletlink")
		if err != nil {
			return err
		}
		defer rt.close()
		addr := rt.cfg.Server.ListenAddr
		if listenAddr != "" {
			addr = listenAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(api.Config{
			ListenAddr:     addr,
			AnalyzeTimeout: rt.cfg.Server.AnalyzeTimeout,
		}, rt.analyzer, rt.provider, rt.metrics)
		srv.SetTrail(rt.trail)
		if rt.helius != nil {
			srv.AddStats("provider", func() any { return rt.helius.Stats() })
		}

		// Periodic stats logging.
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					st := rt.analyzer.Stats()
					log.Info().
						Int64("analyses", st.Analyses).
						Int64("failures", st.Failures).
						Int64("hop2_branches", st.Branches).
						Int64("hop2_branch_failures", st.BranchFailures).
						Int64("avg_latency_ms", st.AvgLatencyMs).
						Int64("rate_limited", rt.metrics.RateLimited.Value()).
						Msg("[STATS]")
				}
			}
		}()

		log.Info().Str("addr", addr).Msg("walletlink service running (health + analyze + metrics + stats + ws)")
		if err := srv.Run(ctx); err != nil {
			return err
		}
		log.Info().Msg("walletlink service - shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Override server.listen_addr")
	rootCmd.AddCommand(serveCmd)
}
