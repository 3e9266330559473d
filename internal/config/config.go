// Package config loads and validates tokenmeter configuration.
//
// DESIGN: YAML file supplied by the host; every section has working defaults
// so an empty config is valid. Pricing entries extend or override the builtin
// table. Rates are parsed from the scalar's literal text into exact decimals,
// so "0.15" and 0.15 both land on the same exact value.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tokenmeter/tokenmeter/internal/pricing"
	"github.com/tokenmeter/tokenmeter/internal/track"
)

// Config is the top-level configuration.
type Config struct {
	Pricing   PricingConfig   `yaml:"pricing"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Export    ExportConfig    `yaml:"export"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// PricingConfig controls the price table.
type PricingConfig struct {
	// UseBuiltin includes the builtin rates; Models extend or override them.
	UseBuiltin bool         `yaml:"use_builtin"`
	Models     []ModelPrice `yaml:"models"`
}

// Rate is an exact decimal rate parsed from a YAML scalar.
type Rate struct {
	decimal.Decimal
}

// UnmarshalYAML parses the scalar's literal text, keeping it exact.
func (r *Rate) UnmarshalYAML(value *yaml.Node) error {
	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", value.Value, err)
	}
	r.Decimal = d
	return nil
}

// MarshalYAML renders the rate as its decimal string.
func (r Rate) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// ModelPrice is one price table row, USD per million tokens.
type ModelPrice struct {
	Model         string `yaml:"model"`
	InputPerMTok  Rate   `yaml:"input_per_mtok"`
	OutputPerMTok Rate   `yaml:"output_per_mtok"`
}

// TrackingConfig controls interceptor behavior.
type TrackingConfig struct {
	// Mode is "strict" or "best_effort". Strict drops a call's result when
	// its usage cannot be recorded; best_effort logs and returns it anyway.
	Mode string `yaml:"mode"`
}

// ExportConfig controls ledger persistence.
type ExportConfig struct {
	JSONLPath  string `yaml:"jsonl_path"`  // empty = disabled
	SQLitePath string `yaml:"sqlite_path"` // empty = disabled
}

// DashboardConfig controls the cost dashboard server.
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pricing:   PricingConfig{UseBuiltin: true},
		Tracking:  TrackingConfig{Mode: ModeStrict},
		Dashboard: DashboardConfig{Addr: DefaultDashboardAddr},
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Tracking.Mode {
	case ModeStrict, ModeBestEffort:
	default:
		return fmt.Errorf("tracking.mode must be %q or %q, got %q", ModeStrict, ModeBestEffort, c.Tracking.Mode)
	}
	if c.Dashboard.Enabled && c.Dashboard.Addr == "" {
		return fmt.Errorf("dashboard.addr must be set when dashboard.enabled is true")
	}
	for _, m := range c.Pricing.Models {
		if m.Model == "" {
			return fmt.Errorf("pricing.models entry with empty model id")
		}
		if m.InputPerMTok.IsNegative() || m.OutputPerMTok.IsNegative() {
			return fmt.Errorf("model %q: rates must be >= 0", m.Model)
		}
	}
	if !c.Pricing.UseBuiltin && len(c.Pricing.Models) == 0 {
		return fmt.Errorf("pricing has no builtin table and no models")
	}
	return nil
}

// Table builds the price table: builtin rates (if enabled) with configured
// models layered on top.
func (c *Config) Table() (*pricing.Table, error) {
	var entries []pricing.Entry
	if c.Pricing.UseBuiltin {
		builtin := pricing.Builtin()
		for _, m := range builtin.Models() {
			if c.overrides(m) {
				continue
			}
			rates, err := builtin.RateFor(m)
			if err != nil {
				return nil, err
			}
			entries = append(entries, pricing.Entry{Model: m, InputPerMTok: rates.InputPerMTok, OutputPerMTok: rates.OutputPerMTok})
		}
	}
	for _, m := range c.Pricing.Models {
		entries = append(entries, pricing.Entry{
			Model:         m.Model,
			InputPerMTok:  m.InputPerMTok.Decimal,
			OutputPerMTok: m.OutputPerMTok.Decimal,
		})
	}
	return pricing.New(entries)
}

func (c *Config) overrides(model string) bool {
	for _, m := range c.Pricing.Models {
		if m.Model == model {
			return true
		}
	}
	return false
}

// TrackMode maps the configured mode string to a track.Mode.
func (c *Config) TrackMode() track.Mode {
	if c.Tracking.Mode == ModeBestEffort {
		return track.BestEffort
	}
	return track.Strict
}
