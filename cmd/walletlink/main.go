package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-trading/walletlink/internal/audit"
	"github.com/nexus-trading/walletlink/internal/config"
	"github.com/nexus-trading/walletlink/internal/graph"
	"github.com/nexus-trading/walletlink/internal/observability"
	"github.com/nexus-trading/walletlink/internal/solana"
)

var (
	configPath string
	stubMode   bool
	stubData   string
)

var rootCmd = &cobra.Command{
	Use:   "walletlink",
	Short: "Find Solana wallets that likely belong to the same owner",
	Long: `walletlink scores the wallets a Solana address interacted with, directly
and through one intermediate hop, using funding, fee-payer, transfer-pattern,
timing and shared-counterparty signals.

Transaction history comes from the Helius API. Set HELIUS_API_KEY (a .env file
in the working directory is read) or provider.api_key in the config file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVar(&stubMode, "stub", false, "Use the in-memory stub provider (no network)")
	rootCmd.PersistentFlags().StringVar(&stubData, "stub-data", "", "JSON fixture loaded into the stub provider")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime is the wired analysis stack shared by every subcommand.
type runtime struct {
	cfg      *config.Config
	provider solana.TransactionProvider
	helius   *solana.HeliusClient // nil in stub mode
	analyzer *graph.Analyzer
	metrics  *observability.WalletLinkMetrics
	trail    *audit.Trail
	auditLog *os.File
}

func (rt *runtime) close() {
	if rt.auditLog != nil {
		_ = rt.auditLog.Close()
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", configPath, err)
	}
	return cfg, nil
}

func buildRuntime(service string) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.General, service)

	if n := cfg.RegisterEntities(); n > 0 {
		log.Info().Int("entities", n).Msg("Registered configured entities")
	}
	if n := cfg.RegisterLabels(); n > 0 {
		log.Info().Int("labels", n).Msg("Registered address labels")
	}

	rt := &runtime{cfg: cfg, metrics: observability.NewWalletLinkMetrics()}

	if stubMode || stubData != "" {
		stub := solana.NewStubProvider()
		if stubData != "" {
			if err := stub.LoadFile(stubData); err != nil {
				return nil, err
			}
		}
		rt.provider = stub
		log.Info().Str("fixture", stubData).Msg("Transaction provider: STUB mode")
	} else {
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("no Helius API key: set HELIUS_API_KEY or provider.api_key")
		}
		gate := solana.NewAdmissionGate(cfg.Provider.MaxConcurrent)
		rt.helius = solana.NewHeliusClient(cfg.Provider, gate)
		rt.helius.SetObserver(rt.metrics)
		rt.provider = rt.helius

		healthCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rt.provider.Health(healthCtx); err != nil {
			log.Warn().Err(err).Str("endpoint", cfg.Provider.RPCURL).
				Msg("Provider health check failed (continuing, may be rate-limited)")
		} else {
			log.Info().Str("endpoint", cfg.Provider.BaseURL).Msg("Transaction provider: LIVE")
		}
		cancel()
	}

	rt.analyzer = graph.NewAnalyzer(rt.provider, cfg.AnalyzerConfig())
	rt.analyzer.SetMetrics(rt.metrics)

	if cfg.Server.AuditLog != "" {
		f, err := os.OpenFile(cfg.Server.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		rt.auditLog = f
		rt.trail = audit.NewTrail(f, cfg.Server.AuditBuffer)
	} else {
		rt.trail = audit.NewTrail(nil, cfg.Server.AuditBuffer)
	}

	a := rt.analyzer.Config()
	log.Info().
		Str("instance_id", cfg.General.InstanceID).
		Bool("stub_mode", rt.helius == nil).
		Int("hop1_limit", a.Hop1Limit).
		Int("hop2_limit", a.Hop2Limit).
		Int("max_hop2_wallets", a.MaxHop2Wallets).
		Dur("branch_timeout", a.BranchTimeout).
		Int("max_concurrent", cfg.Provider.MaxConcurrent).
		Msg("Configuration loaded")

	return rt, nil
}

func setupLogging(general config.GeneralConfig, service string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	level, err := zerolog.ParseLevel(general.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if general.LogFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Str("service", service).
			Str("instance", general.InstanceID).Logger()
	} else {
		log.Logger = zerolog.New(os.Stderr).
			With().Timestamp().Str("service", service).
			Str("instance", general.InstanceID).Logger()
	}
}
