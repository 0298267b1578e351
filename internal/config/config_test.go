package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-trading/walletlink/internal/classify"
	"github.com/nexus-trading/walletlink/internal/graph"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "walletlink-config-*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestLoadConfig(t *testing.T) {
	yaml := `
general:
  instance_id: "test-node"
  environment: "development"
  log_level: "debug"
  log_format: "text"

provider:
  api_key: "k-123"
  base_url: "http://localhost:9999/v0"
  timeout: 5s
  max_concurrent: 4
  retry_delay: 250ms
  page_size: 50

analysis:
  hop1_limit: 200
  max_hop2_wallets: 5
  branch_timeout: 10s
  sol_price_usd: 150
  stable_mints:
    - "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

scoring:
  funder: 120
  same_funder: 80

server:
  listen_addr: ":9090"
  audit_log: "/var/log/walletlink/audit.jsonl"
`
	cfg, err := Load(writeTemp(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, "test-node", cfg.General.InstanceID)
	assert.Equal(t, "text", cfg.General.LogFormat)
	assert.Equal(t, "k-123", cfg.Provider.APIKey)
	assert.Equal(t, "http://localhost:9999/v0", cfg.Provider.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 4, cfg.Provider.MaxConcurrent)
	assert.Equal(t, 250*time.Millisecond, cfg.Provider.RetryDelay)
	assert.Equal(t, 50, cfg.Provider.PageSize)

	assert.Equal(t, 200, cfg.Analysis.Hop1Limit)
	assert.Equal(t, 50, cfg.Analysis.Hop2Limit)
	assert.Equal(t, 5, cfg.Analysis.MaxHop2Wallets)
	assert.Equal(t, 10*time.Second, cfg.Analysis.BranchTimeout)
	assert.Equal(t, 150.0, cfg.Analysis.SOLPriceUSD)
	assert.Len(t, cfg.Analysis.StableMints, 1)

	ac := cfg.AnalyzerConfig()
	assert.Equal(t, 120.0, ac.Weights.Funder)
	assert.Equal(t, 80.0, ac.Weights.SameFunder)
	assert.Equal(t, 0.0, ac.Weights.FeePayer, "a partial scoring section is taken as written")

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, 2*time.Minute, cfg.Server.AnalyzeTimeout)
	assert.Equal(t, "/var/log/walletlink/audit.jsonl", cfg.Server.AuditLog)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "general:\n  log_level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "walletlink-1", cfg.General.InstanceID)
	assert.Equal(t, "warn", cfg.General.LogLevel)
	assert.Equal(t, "json", cfg.General.LogFormat)
	assert.Equal(t, "https://api.helius.xyz/v0", cfg.Provider.BaseURL)
	assert.Equal(t, 10, cfg.Provider.MaxConcurrent)
	assert.Equal(t, time.Second, cfg.Provider.RetryDelay)
	assert.Equal(t, 100, cfg.Analysis.Hop1Limit)
	assert.Equal(t, 15, cfg.Analysis.MaxHop2Wallets)
	assert.Equal(t, 30*time.Second, cfg.Analysis.BranchTimeout)
	assert.Equal(t, 0.1, cfg.Analysis.MinSiblingSOL)
	assert.Len(t, cfg.Analysis.StableMints, 4)
	assert.Equal(t, 100.0, cfg.Scoring.Funder)
	assert.Equal(t, 25.0, cfg.Scoring.CommonCPMed)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 500, cfg.Server.AuditBuffer)
	assert.Empty(t, cfg.Server.AuditLog)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("TEST_WALLETLINK_KEY", "env-key")

	cfg, err := Load(writeTemp(t, "provider:\n  api_key: \"${TEST_WALLETLINK_KEY}\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Provider.APIKey)
}

func TestLoadConfigAPIKeyFallback(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "from-env")

	cfg, err := Load(writeTemp(t, "general:\n  instance_id: x\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad log format", "general:\n  log_format: xml\n"},
		{"page size too large", "provider:\n  page_size: 500\n"},
		{"negative concurrency", "provider:\n  max_concurrent: -1\n"},
		{"entity without name", "entities:\n  - address: abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/walletlink.yaml")
	assert.Error(t, err)
}

func TestRegisterEntities(t *testing.T) {
	yaml := `
entities:
  - address: "DeskWa11etTestAddressXXXXXXXXXXXXXXXXXXXX"
    name: "Desk Treasury"
  - address: "MarketMakerTestAddressYYYYYYYYYYYYYYYYYYY"
    name: "Some MM"
    category: "bot"
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.RegisterEntities())

	e, ok := classify.Classify("DeskWa11etTestAddressXXXXXXXXXXXXXXXXXXXX")
	require.True(t, ok)
	assert.Equal(t, classify.CategoryCustom, e.Category)
	assert.True(t, classify.IsExcludedAddress("MarketMakerTestAddressYYYYYYYYYYYYYYYYYYY"))

	e, _ = classify.Classify("MarketMakerTestAddressYYYYYYYYYYYYYYYYYYY")
	assert.Equal(t, classify.CategoryBot, e.Category)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100.0, cfg.AnalyzerConfig().Weights.Funder)
}

func TestLoadExampleConfig(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "example-key")

	cfg, err := Load(filepath.Join("..", "..", "config", "walletlink.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "example-key", cfg.Provider.APIKey)
	assert.Equal(t, graph.DefaultWeights(), cfg.Scoring)
	assert.Equal(t, 15, cfg.Analysis.MaxHop2Wallets)
	require.Len(t, cfg.Entities, 1)
	assert.Equal(t, "dex", cfg.Entities[0].Category)
	assert.Len(t, cfg.Labels, 1)
}

func TestRegisterLabels(t *testing.T) {
	yaml := `
labels:
  "LabeledVaultTestAddressZZZZZZZZZZZZZZZZZZZ": "Kamino lending vault"
  "PersonalTestAddressWWWWWWWWWWWWWWWWWWWWWWW": "alice"
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.RegisterLabels())

	vault := "LabeledVaultTestAddressZZZZZZZZZZZZZZZZZZZ"
	assert.Equal(t, "Kamino lending vault", classify.Label(vault))
	assert.True(t, classify.Excluded(vault, classify.Label(vault)))
	assert.False(t, classify.IsExcludedAddress(vault))

	personal := "PersonalTestAddressWWWWWWWWWWWWWWWWWWWWWWW"
	assert.False(t, classify.Excluded(personal, classify.Label(personal)))

	_, err = Parse([]byte("labels:\n  \"SomeAddr\": \"\"\n"))
	assert.Error(t, err)
}
