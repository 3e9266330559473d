package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenmeter/tokenmeter/internal/track"
)

func rate(s string) Rate {
	return Rate{decimal.RequireFromString(s)}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenmeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
pricing:
  use_builtin: true
  models:
    - model: my-fine-tune
      input_per_mtok: "1.25"
      output_per_mtok: "3.75"
tracking:
  mode: best_effort
export:
  jsonl_path: /tmp/costs.jsonl
dashboard:
  enabled: true
  addr: 127.0.0.1:9999
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeBestEffort, cfg.Tracking.Mode)
	assert.Equal(t, track.BestEffort, cfg.TrackMode())
	assert.Equal(t, "/tmp/costs.jsonl", cfg.Export.JSONLPath)
	assert.Equal(t, "127.0.0.1:9999", cfg.Dashboard.Addr)

	table, err := cfg.Table()
	require.NoError(t, err)

	rates, err := table.RateFor("my-fine-tune")
	require.NoError(t, err)
	assert.Equal(t, "1.25", rates.InputPerMTok.String())

	// Builtin models still present
	_, err = table.RateFor("gpt-4o")
	assert.NoError(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, track.Strict, cfg.TrackMode())
	assert.Equal(t, DefaultDashboardAddr, cfg.Dashboard.Addr)

	table, err := cfg.Table()
	require.NoError(t, err)
	assert.Greater(t, table.Len(), 0)
}

func TestTable_OverridesBuiltin(t *testing.T) {
	cfg := Default()
	cfg.Pricing.Models = []ModelPrice{{Model: "gpt-4o", InputPerMTok: rate("99"), OutputPerMTok: rate("199")}}

	table, err := cfg.Table()
	require.NoError(t, err)

	rates, err := table.RateFor("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "99", rates.InputPerMTok.String())
}

func TestValidate_BadMode(t *testing.T) {
	cfg := Default()
	cfg.Tracking.Mode = "lenient"
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadRate(t *testing.T) {
	path := writeConfig(t, `
pricing:
  models:
    - model: m
      input_per_mtok: cheap
      output_per_mtok: "1"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := Default()
	cfg.Pricing.Models = []ModelPrice{{Model: "m", InputPerMTok: rate("-1"), OutputPerMTok: rate("1")}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_EmptyPricing(t *testing.T) {
	cfg := Default()
	cfg.Pricing.UseBuiltin = false
	assert.Error(t, cfg.Validate())
}

func TestValidate_DashboardNeedsAddr(t *testing.T) {
	cfg := Default()
	cfg.Dashboard.Enabled = true
	cfg.Dashboard.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestLoad_NumericRates(t *testing.T) {
	// YAML numbers work too; yaml decodes them into the string fields
	path := writeConfig(t, `
pricing:
  use_builtin: false
  models:
    - model: m1
      input_per_mtok: 0.15
      output_per_mtok: 0.60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	table, err := cfg.Table()
	require.NoError(t, err)
	rates, err := table.RateFor("m1")
	require.NoError(t, err)
	assert.Equal(t, "0.15", rates.InputPerMTok.String())
}
