package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  env: test
`))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9984", cfg.App.HTTPAddr)
	assert.Equal(t, 300, cfg.App.TickIntervalSeconds)
	assert.True(t, cfg.Trading.Enabled)
	assert.Equal(t, "hold", cfg.Trading.Posture)
	assert.Equal(t, 3, cfg.Trading.DailyCap)
	assert.Equal(t, 120, cfg.Trading.MinIntervalMinutes)
	assert.InDelta(t, 0.05, cfg.Trading.MaxSpendETH, 1e-9)
	assert.InDelta(t, 0.25, cfg.Trading.MaxSellFraction, 1e-9)
	assert.Equal(t, 6, cfg.Content.DailyCap)
	assert.Equal(t, 200, cfg.Content.DedupCapacity)
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 60, cfg.Breaker.CooldownMinutes)
	assert.True(t, cfg.Chain.DryRun)
	assert.Equal(t, 18, cfg.Chain.TokenDecimals)
	assert.Equal(t, 60, cfg.Generator.TimeoutSeconds)
}

func TestLoadKeepsExplicitZeroAndFalse(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
trading:
  enabled: false
`))
	require.NoError(t, err)
	assert.False(t, cfg.Trading.Enabled)
}

func TestLoadRejectsBadPosture(t *testing.T) {
	_, err := Load(writeConfig(t, `
trading:
  posture: yolo
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trading.posture")
}

func TestLoadRejectsBadSellFraction(t *testing.T) {
	_, err := Load(writeConfig(t, `
trading:
  max_sell_fraction: 1.5
`))
	require.Error(t, err)
}

func TestLoadRequiresChainFieldsWhenLive(t *testing.T) {
	_, err := Load(writeConfig(t, `
chain:
  dry_run: false
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain.rpc_url")
}

func TestLoadRequiresChannelCredentialsWhenEnabled(t *testing.T) {
	_, err := Load(writeConfig(t, `
channels:
  telegram:
    enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestLoadVoiceMissingFileUsesBuiltins(t *testing.T) {
	v, err := LoadVoice(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, v.Disclaimers)
	assert.NotEmpty(t, v.FallbackTemplates)
}

func TestLoadVoiceParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
disclaimers:
  - "  Careful out there.  "
fallback_templates:
  - "News: %s"
`), 0o644))

	v, err := LoadVoice(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Careful out there."}, v.Disclaimers)
	assert.Equal(t, []string{"News: %s"}, v.FallbackTemplates)
}
