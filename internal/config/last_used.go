package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/hashstructure/v2"
)

// lastUsedFingerprint captures the slice of config that, if changed,
// invalidates a persisted last_used.json: the active plan's limits plus
// any pricing overrides. A hash lets us detect "the flag combination
// changed since last run" without diffing every field by hand each time
// a new option is added.
type lastUsedFingerprint struct {
	Plan             PlanLimits
	PricingOverrides map[string]ModelPricingOverride
}

// LastUsed is the JSON object optionally persisted under
// $HOME/.genai-code-usage-monitor/last_used.json. Its absence is not an
// error.
type LastUsed struct {
	Platform    Platform `json:"platform"`
	Plan        string   `json:"plan"`
	Fingerprint uint64   `json:"fingerprint"`
}

// Fingerprint hashes the plan+pricing-override combination so a future
// run can detect whether its resolved config still matches what was last
// persisted, without hand-writing an equality check per field.
func Fingerprint(plan PlanLimits, overrides map[string]ModelPricingOverride) (uint64, error) {
	h, err := hashstructure.Hash(lastUsedFingerprint{Plan: plan, PricingOverrides: overrides}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("fingerprinting config: %w", err)
	}
	return h, nil
}

func lastUsedPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, ".genai-code-usage-monitor", "last_used.json"), nil
}

// LoadLastUsed reads the persisted last-used flags, returning a zero value
// (not an error) if the file is absent.
func LoadLastUsed() (LastUsed, error) {
	path, err := lastUsedPath()
	if err != nil {
		return LastUsed{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return LastUsed{}, nil
	}
	if err != nil {
		return LastUsed{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var lu LastUsed
	if err := json.Unmarshal(data, &lu); err != nil {
		return LastUsed{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lu, nil
}

// SaveLastUsed persists lu, creating the parent directory if needed.
func SaveLastUsed(lu LastUsed) error {
	path, err := lastUsedPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(lu, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last_used: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Stale reports whether the persisted fingerprint no longer matches the
// currently resolved plan+overrides, meaning a CLI flag changed since the
// last run and any dependent cache should be treated as invalidated.
func (lu LastUsed) Stale(plan PlanLimits, overrides map[string]ModelPricingOverride) bool {
	current, err := Fingerprint(plan, overrides)
	if err != nil {
		return true
	}
	return current != lu.Fingerprint
}
