package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nexus-trading/walletlink/internal/classify"
	"github.com/nexus-trading/walletlink/internal/graph"
	"github.com/nexus-trading/walletlink/internal/solana"
)

// Config is the root configuration structure for walletlink.
type Config struct {
	General  GeneralConfig         `yaml:"general"`
	Provider solana.ProviderConfig `yaml:"provider"`
	Analysis graph.Config          `yaml:"analysis"`
	Scoring  graph.Weights         `yaml:"scoring"`
	Server   ServerConfig          `yaml:"server"`
	Entities []EntityConfig        `yaml:"entities"`
	Labels   map[string]string     `yaml:"labels"` // address -> label, checked against excluded label patterns
}

type GeneralConfig struct {
	InstanceID  string `yaml:"instance_id"`
	Environment string `yaml:"environment"` // production|staging|development
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json|text
}

type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	AnalyzeTimeout time.Duration `yaml:"analyze_timeout"`
	AuditBuffer    int           `yaml:"audit_buffer"` // recent analyses kept for /history
	AuditLog       string        `yaml:"audit_log"`    // optional JSON-lines file
}

// EntityConfig adds a known non-personal address to the classifier.
type EntityConfig struct {
	Address  string `yaml:"address"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"` // cex|dex|nft|defi|system|bridge|bot|custom
}

// Load reads and parses a YAML configuration file. A .env file in the
// working directory, if present, is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML, expanding environment variables.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given. Like Load,
// it picks up a .env file first.
func Default() *Config {
	_ = godotenv.Load()
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.General.InstanceID == "" {
		cfg.General.InstanceID = "walletlink-1"
	}
	if cfg.General.Environment == "" {
		cfg.General.Environment = "development"
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}

	p := solana.DefaultProviderConfig()
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("HELIUS_API_KEY")
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = p.BaseURL
	}
	if cfg.Provider.RPCURL == "" {
		cfg.Provider.RPCURL = p.RPCURL
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = p.Timeout
	}
	if cfg.Provider.MaxConcurrent == 0 {
		cfg.Provider.MaxConcurrent = p.MaxConcurrent
	}
	if cfg.Provider.RetryDelay == 0 {
		cfg.Provider.RetryDelay = p.RetryDelay
	}
	if cfg.Provider.PageSize == 0 {
		cfg.Provider.PageSize = p.PageSize
	}
	if cfg.Provider.PageDelay == 0 {
		cfg.Provider.PageDelay = p.PageDelay
	}

	a := graph.DefaultConfig()
	if cfg.Analysis.Hop1Limit == 0 {
		cfg.Analysis.Hop1Limit = a.Hop1Limit
	}
	if cfg.Analysis.Hop2Limit == 0 {
		cfg.Analysis.Hop2Limit = a.Hop2Limit
	}
	if cfg.Analysis.FunderHistoryLimit == 0 {
		cfg.Analysis.FunderHistoryLimit = a.FunderHistoryLimit
	}
	if cfg.Analysis.MaxHop1Wallets == 0 {
		cfg.Analysis.MaxHop1Wallets = a.MaxHop1Wallets
	}
	if cfg.Analysis.MaxHop2Wallets == 0 {
		cfg.Analysis.MaxHop2Wallets = a.MaxHop2Wallets
	}
	if cfg.Analysis.MaxHop2Results == 0 {
		cfg.Analysis.MaxHop2Results = a.MaxHop2Results
	}
	if cfg.Analysis.MaxCluster == 0 {
		cfg.Analysis.MaxCluster = a.MaxCluster
	}
	if cfg.Analysis.BranchTimeout == 0 {
		cfg.Analysis.BranchTimeout = a.BranchTimeout
	}
	if cfg.Analysis.SOLPriceUSD == 0 {
		cfg.Analysis.SOLPriceUSD = a.SOLPriceUSD
	}
	if cfg.Analysis.MinValueUSD == 0 {
		cfg.Analysis.MinValueUSD = a.MinValueUSD
	}
	if cfg.Analysis.MinMaterialUSD == 0 {
		cfg.Analysis.MinMaterialUSD = a.MinMaterialUSD
	}
	if cfg.Analysis.MinSiblingSOL == 0 {
		cfg.Analysis.MinSiblingSOL = a.MinSiblingSOL
	}
	if cfg.Analysis.LargeTransferSOL == 0 {
		cfg.Analysis.LargeTransferSOL = a.LargeTransferSOL
	}
	if len(cfg.Analysis.StableMints) == 0 {
		cfg.Analysis.StableMints = a.StableMints
	}

	if cfg.Scoring == (graph.Weights{}) {
		cfg.Scoring = graph.DefaultWeights()
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.AnalyzeTimeout == 0 {
		cfg.Server.AnalyzeTimeout = 2 * time.Minute
	}
	if cfg.Server.AuditBuffer == 0 {
		cfg.Server.AuditBuffer = 500
	}
}

// Validate rejects values the analyzer cannot run with.
func (c *Config) Validate() error {
	switch c.General.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: log_format must be json or text, got %q", c.General.LogFormat)
	}
	if c.Provider.PageSize < 1 || c.Provider.PageSize > 100 {
		return fmt.Errorf("config: provider.page_size must be in [1,100], got %d", c.Provider.PageSize)
	}
	if c.Provider.MaxConcurrent < 1 {
		return fmt.Errorf("config: provider.max_concurrent must be positive, got %d", c.Provider.MaxConcurrent)
	}
	if c.Analysis.MaxHop2Wallets < 0 || c.Analysis.MaxHop1Wallets < 0 {
		return fmt.Errorf("config: analysis wallet limits must not be negative")
	}
	if c.Analysis.SOLPriceUSD < 0 {
		return fmt.Errorf("config: analysis.sol_price_usd must not be negative")
	}
	for i, e := range c.Entities {
		if e.Address == "" || e.Name == "" {
			return fmt.Errorf("config: entities[%d] needs address and name", i)
		}
	}
	for addr, label := range c.Labels {
		if addr == "" || label == "" {
			return fmt.Errorf("config: labels entry %q needs address and label", addr)
		}
	}
	return nil
}

// AnalyzerConfig merges the analysis and scoring sections.
func (c *Config) AnalyzerConfig() graph.Config {
	out := c.Analysis
	out.Weights = c.Scoring
	return out
}

// RegisterEntities adds the configured entities to the classifier and
// returns how many were registered.
func (c *Config) RegisterEntities() int {
	for _, e := range c.Entities {
		cat := classify.Category(e.Category)
		if cat == "" {
			cat = classify.CategoryCustom
		}
		classify.Register(e.Address, e.Name, cat)
	}
	return len(c.Entities)
}

// RegisterLabels attaches the configured address labels to the classifier
// and returns how many were set.
func (c *Config) RegisterLabels() int {
	for addr, label := range c.Labels {
		classify.SetLabel(addr, label)
	}
	return len(c.Labels)
}
