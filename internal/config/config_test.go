package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	c := Default()
	c.RefreshRate = 10 * time.Second
	return c
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() on Default() = %v, want nil", err)
	}
}

func TestValidateRejectsRefreshRateOutOfRange(t *testing.T) {
	c := validConfig()
	c.RefreshRate = 500 * time.Millisecond
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject a sub-1s refresh rate")
	}

	c.RefreshRate = 61 * time.Second
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject a refresh rate over 60s")
	}
}

func TestValidateRejectsResetHourOutOfRange(t *testing.T) {
	c := validConfig()
	c.ResetHour = 24
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject --reset-hour=24")
	}
	c.ResetHour = -1
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject a negative --reset-hour")
	}
}

func TestValidateRejectsCustomLimitsWithoutCustomPlan(t *testing.T) {
	c := validConfig()
	c.Plan = "pro"
	c.CustomLimitTokens = 1000
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject --custom-limit-tokens without --plan custom")
	}
}

func TestValidateRejectsUnknownPlan(t *testing.T) {
	c := validConfig()
	c.Plan = "enterprise-ultra"
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject an unknown plan name")
	}
}

func TestValidateRejectsUnknownPlatform(t *testing.T) {
	c := validConfig()
	c.Platform = Platform("bogus")
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject an unknown platform")
	}
}

func TestValidateAcceptsCustomPlanWithOverrides(t *testing.T) {
	c := validConfig()
	c.Plan = "custom"
	c.CustomLimitTokens = 50_000
	c.CustomLimitCostSet = true
	c.CustomLimitCost = 25.0
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() on custom plan with overrides = %v, want nil", err)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Reason: "bad plan"}
	if err.Error() != "config error: bad plan" {
		t.Errorf("Error() = %q, want %q", err.Error(), "config error: bad plan")
	}
}
