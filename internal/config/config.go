// Package config resolves and persists the CLI-observable configuration
// that drives the monitor: which platforms to watch, which plan to budget
// against, and the ambient paths/timings the driver and TUI need.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// Platform selects which providers the driver runs.
type Platform string

const (
	PlatformCodex  Platform = "codex"
	PlatformClaude Platform = "claude"
	PlatformAll    Platform = "all"
)

// Config is the fully-resolved configuration struct the driver and TUI
// read from, assembled from CLI flags, environment, and the persisted
// config file in that precedence order.
type Config struct {
	Platform Platform

	Plan                string
	CustomLimitTokens   int64
	CustomLimitCost     float64
	CustomLimitCostSet  bool

	RefreshRate time.Duration
	Timezone    string
	ResetHour   int

	Theme string

	// PricingOverrides carries the persisted FileConfig's per-model rate
	// overrides through to the fingerprint last_used.go hashes against.
	PricingOverrides map[string]ModelPricingOverride
}

// ConfigError reports a bad CLI/config combination, surfaced before the
// driver starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Reason) }

// Validate checks for flag combinations that should surface as a
// ConfigError, e.g. supplying --custom-limit-tokens without --plan custom.
func (c Config) Validate() error {
	if c.RefreshRate < time.Second || c.RefreshRate > 60*time.Second {
		return &ConfigError{Reason: "--refresh-rate must be between 1 and 60 seconds"}
	}
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return &ConfigError{Reason: "--reset-hour must be between 0 and 23"}
	}
	if c.Plan != "custom" && (c.CustomLimitTokens != 0 || c.CustomLimitCostSet) {
		return &ConfigError{Reason: "--custom-limit-tokens/--custom-limit-cost require --plan custom"}
	}
	if c.Plan != "custom" {
		if _, ok := NamedPlans[c.Plan]; !ok {
			return &ConfigError{Reason: fmt.Sprintf("unknown plan %q", c.Plan)}
		}
	}
	switch c.Platform {
	case PlatformCodex, PlatformClaude, PlatformAll:
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown platform %q", c.Platform)}
	}
	return nil
}

// Default returns a Config with sensible defaults: a 10s tick, UTC
// display, midnight daily rollover, Pro plan.
func Default() Config {
	return Config{
		Platform:    PlatformAll,
		Plan:        "pro",
		RefreshRate: 10 * time.Second,
		Timezone:    "UTC",
		ResetHour:   0,
		Theme:       "flexoki-dark",
	}
}

// FileConfig is the subset of Config persisted to the TOML config file -
// appearance and plan defaults the user wants remembered across runs.
type FileConfig struct {
	Theme    string `toml:"theme"`
	Plan     string `toml:"plan"`
	Platform string `toml:"platform,omitempty"`

	PricingOverrides map[string]ModelPricingOverride `toml:"pricing_overrides,omitempty"`
}

// ModelPricingOverride lets a user pin rates for a model the built-in
// pricing table gets wrong or doesn't yet know about.
type ModelPricingOverride struct {
	InputPerMTok         float64 `toml:"input_per_mtok"`
	OutputPerMTok        float64 `toml:"output_per_mtok"`
	CacheCreationPerMTok float64 `toml:"cache_creation_per_mtok"`
	CacheReadPerMTok     float64 `toml:"cache_read_per_mtok"`
}

// Dir returns the XDG config directory for this tool, creating it if
// necessary.
func Dir() (string, error) {
	dir, err := xdg.ConfigFile("tokenpulse/config.toml")
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Dir(dir), nil
}

// Path returns the full path to the persisted TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the persisted FileConfig, returning a zero-value FileConfig
// (not an error) if the file does not yet exist.
func Load() (FileConfig, error) {
	path, err := Path()
	if err != nil {
		return FileConfig{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return FileConfig{}, nil
	}
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return fc, nil
}

// Save persists fc to the TOML config file, creating parent directories
// as needed.
func Save(fc FileConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(fc)
}
